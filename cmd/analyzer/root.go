package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chat-insights-go/internal/app"
	"chat-insights-go/internal/config"
	"chat-insights-go/internal/logger"
)

var (
	cfgFile string
	verbose bool
	chatLog string

	v = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Analyze support chat exports with a generative model",
	Long: `Analyze a WhatsApp-style support chat with a generative model.

The analyzer signs in to the configured provider, loads a chat export,
extracts who is talking, splits participants into two teams and streams a
report back for the query you ask.

Quick Start:
  analyzer models                                # sign in and list models
  analyzer participants --chat chat.txt          # extract participants
  analyzer analyze --query "What went wrong?"    # stream a report
  analyzer serve                                 # HTTP + websocket API`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel("debug")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./analyzer.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&chatLog, "chat", "", "Chat export to load (.txt or .xlsx)")
	pf.String("provider", "", "LLM provider: gemini, openai or mock")
	pf.String("api-key", "", "API key for the provider")
	pf.String("tier", "", "API tier used for rate limits")
	pf.String("working-language", "", "Working language of the model")

	for key, flag := range map[string]string{
		"llm_provider":     "provider",
		"llm_api_key":      "api-key",
		"api_tier":         "tier",
		"working_language": "working-language",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}
}

// openApp loads config, restores the last session and applies --chat.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	a, err := app.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.RestoreLatest(ctx); err != nil {
		logger.New().WithError(err).Warn("session restore incomplete")
	}
	if chatLog != "" {
		if err := a.Session.Transcript.Load(chatLog); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// requireModels signs in when the restored session has no model list yet.
func requireModels(ctx context.Context, a *app.App) error {
	if len(a.Session.Catalog.Models()) > 0 {
		return nil
	}
	if a.Config.APIKey == "" {
		return fmt.Errorf("no API key: set LLM_API_KEY or pass --api-key")
	}
	_, err := a.Session.Authenticate(ctx, a.Config.APIKey)
	return err
}
