package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chat-insights-go/internal/config"
	"chat-insights-go/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List past analyses, or print one in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		if cfg.HistoryDB == "" {
			return fmt.Errorf("history is disabled (HISTORY_DB is empty)")
		}
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			e, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("#%d %s", e.ID, e.Model)))
			fmt.Println(statusStyle.Render(e.Query))
			fmt.Println(e.Output)
			return nil
		}

		entries, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tMODEL\tOUTCOME\tSECONDS\tQUERY")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\t%s\n",
				e.ID, e.StartedAt.Format("2006-01-02 15:04"), e.Model, e.Outcome,
				float64(e.DurationMS)/1000, truncate(e.Query, 48))
		}
		return w.Flush()
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	rootCmd.AddCommand(historyCmd)
}
