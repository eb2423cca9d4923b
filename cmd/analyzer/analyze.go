package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"chat-insights-go/internal/analysis"
	"chat-insights-go/internal/app"
	"chat-insights-go/internal/export"
	"chat-insights-go/internal/history"
	"chat-insights-go/internal/prompts"
	"chat-insights-go/internal/types"
)

var analyzeOpts struct {
	prompt    string
	base      string
	query     string
	language  string
	model     string
	out       string
	noHistory bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Stream an analysis of the loaded chat",
	Long: `Stream an analysis of the loaded chat to stdout. Status lines go to
stderr. Ctrl-C stops the run at the next chunk and keeps what arrived.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := requireModels(ctx, a); err != nil {
			return err
		}
		cfg, promptModel, err := analysisConfig(a.Prompts)
		if err != nil {
			return err
		}
		if err := selectModelFor(a, promptModel); err != nil {
			return err
		}

		began := time.Now()
		run, err := a.Session.StartAnalysis(ctx, cfg)
		if err != nil {
			var rateErr *types.RateLimitedError
			if errors.As(err, &rateErr) {
				fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("Rate limited: wait %.0fs before the next request to %s", rateErr.Wait.Seconds(), rateErr.Model)))
			}
			return err
		}
		for ev := range run.Events() {
			switch ev.Kind {
			case analysis.KindContent:
				fmt.Print(ev.Text)
			case analysis.KindStatus:
				fmt.Fprintln(os.Stderr, statusStyle.Render(ev.Text))
			case analysis.KindCancelled:
				fmt.Fprintln(os.Stderr, warnStyle.Render("\nAnalysis cancelled"))
			case analysis.KindFailed:
				fmt.Fprintln(os.Stderr, errorStyle.Render("\nAnalysis failed: "+ev.Text))
			}
		}
		res := run.Wait()
		fmt.Println()
		fmt.Fprintln(os.Stderr, statusStyle.Render(fmt.Sprintf("Time taken: %.2f seconds", res.Elapsed.Seconds())))

		if !analyzeOpts.noHistory {
			recordHistory(a, began, cfg, res)
		}
		if analyzeOpts.out != "" && res.Output != "" {
			if err := writeReport(a, cfg, res); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, statusStyle.Render("Report written to "+analyzeOpts.out))
		}
		a.SaveSnapshot()
		return res.Err
	},
}

// selectModelFor applies --model, or else the model saved with the prompt
// when the catalog still offers it. Without --prompt a model already chosen
// in the session is kept.
func selectModelFor(a *app.App, promptModel string) error {
	if analyzeOpts.model != "" {
		return a.Session.Catalog.Select(analyzeOpts.model)
	}
	if promptModel == "" {
		return nil
	}
	if _, ok := a.Session.Catalog.Selected(); ok && analyzeOpts.prompt == "" {
		return nil
	}
	if _, ok := a.Session.Catalog.Resolve(promptModel); ok {
		return a.Session.Catalog.Select(promptModel)
	}
	fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("Model %q from the prompt is not available", promptModel)))
	return nil
}

// analysisConfig starts from the named stored prompt and applies flag
// overrides on top. It also returns the model saved with the prompt.
func analysisConfig(lib *prompts.Library) (types.AnalysisConfig, string, error) {
	ref := analyzeOpts.prompt
	if ref == "" {
		ref = prompts.DefaultID
	}
	p, err := lib.Get(ref)
	if errors.Is(err, prompts.ErrNotFound) {
		p, err = lib.FindByName(ref)
	}
	if err != nil {
		return types.AnalysisConfig{}, "", err
	}
	cfg := p.Config()
	if analyzeOpts.base != "" {
		cfg.BaseInstructions = analyzeOpts.base
	}
	if analyzeOpts.query != "" {
		cfg.UserQuery = analyzeOpts.query
	}
	if analyzeOpts.language != "" {
		cfg.Language = analyzeOpts.language
	}
	return cfg, p.Model, nil
}

func recordHistory(a *app.App, began time.Time, cfg types.AnalysisConfig, res analysis.Result) {
	if a.History == nil {
		return
	}
	model, _ := a.Session.Catalog.Selected()
	_, err := a.History.Add(context.Background(), history.Entry{
		StartedAt:  began,
		Model:      model.DisplayLabel,
		Language:   cfg.Language,
		Query:      cfg.UserQuery,
		Outcome:    string(res.Outcome),
		Output:     res.Output,
		DurationMS: res.Elapsed.Milliseconds(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render("Could not record history: "+err.Error()))
	}
}

func writeReport(a *app.App, cfg types.AnalysisConfig, res analysis.Result) error {
	r := export.NewReport(res.Output, a.Session.Transcript.Text(), a.Session.Teams.View())
	model, _ := a.Session.Catalog.Selected()
	r.Model = model.DisplayLabel
	r.Language = cfg.Language
	r.Query = cfg.UserQuery
	r.Range, _ = a.Session.Transcript.TimeRange()
	return export.WriteFile(analyzeOpts.out, r)
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.prompt, "prompt", "", "Stored prompt id or name (default: the built-in report prompt)")
	f.StringVar(&analyzeOpts.base, "base", "", "Override the prompt's base instructions")
	f.StringVarP(&analyzeOpts.query, "query", "q", "", "Question to ask about the chat")
	f.StringVar(&analyzeOpts.language, "language", "", "Language the query is written in")
	f.StringVar(&analyzeOpts.model, "model", "", "Display name of the analysis model")
	f.StringVarP(&analyzeOpts.out, "out", "o", "", "Export the report (.txt, .md or .xlsx)")
	f.BoolVar(&analyzeOpts.noHistory, "no-history", false, "Do not record this run")
	rootCmd.AddCommand(analyzeCmd)
}
