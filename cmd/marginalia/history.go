package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/marginalia/internal/defra"
	"github.com/jackzampolin/marginalia/internal/history"
	"github.com/jackzampolin/marginalia/internal/output"
)

var (
	historyRunID string
	historySince time.Duration
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded sync outcomes",
	Long: `Show per-book sync outcomes recorded in DefraDB, newest first.

Outcomes are recorded only when history.enabled is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := cfgMgr.Get()

		client := defra.NewClient(cfg.Defra.URL)
		if err := client.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%w (use 'marginalia defra start')", err)
		}

		opts := history.ListOptions{RunID: historyRunID, Limit: historyLimit}
		if historySince > 0 {
			opts.Since = time.Now().Add(-historySince)
		}
		events, err := history.List(ctx, client, opts)
		if err != nil {
			return err
		}

		if output.IsStructured() {
			return output.Print(events)
		}
		if len(events) == 0 {
			fmt.Println("No sync history recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tRUN\tOUTCOME\tITEMS\tTITLE\tERROR")
		for _, e := range events {
			run := e.RunID
			if len(run) > 8 {
				run = run[:8]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				e.CreatedAt.Local().Format(time.DateTime), run, e.Outcome, e.Items, e.Title, e.Error)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "Only show events from this run id")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Only show events newer than this, e.g. 24h")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum events to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
