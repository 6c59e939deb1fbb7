package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/marginalia/internal/booksync"
	"github.com/jackzampolin/marginalia/internal/config"
	"github.com/jackzampolin/marginalia/internal/output"
)

var (
	syncFull     bool
	syncDryRun   bool
	syncInterval time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync new and updated books into the target",
	Long: `Sync books from WeRead into the configured target.

Only books whose sort value is above the highest one already stored are
processed. Each is rewritten from scratch: existing pages for the book are
deleted, then a fresh page is created.

Exit status is 0 when every book synced or was skipped, 2 when the run
finished but some books failed, and 1 when the run could not start.

Examples:
  marginalia sync                  # Incremental run
  marginalia sync --full           # Rewrite every book
  marginalia sync --dry-run        # Fetch and assemble, write nothing
  marginalia sync --interval 1h    # Repeat hourly until interrupted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := syncSettings(cmd, cfgMgr.Get())
		if cfg.Sync.Interval <= 0 {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSync(ctx, cfg)
		}

		// Pick up edits to the config file between runs.
		cfgMgr.OnChange(logReload(cmd))
		cfgMgr.WatchConfig()
		return syncLoop(ctx, cmd)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "Ignore the cursor and rewrite every book")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Fetch and assemble without writing")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "Repeat runs at this interval (0 runs once)")

	rootCmd.AddCommand(syncCmd)
}

// syncSettings applies explicitly set flags over the loaded config.
func syncSettings(cmd *cobra.Command, base *config.Config) *config.Config {
	cfg := *base
	if cmd.Flags().Changed("full") {
		cfg.Sync.Full = syncFull
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Sync.DryRun = syncDryRun
	}
	if cmd.Flags().Changed("interval") {
		cfg.Sync.Interval = syncInterval
	}
	return &cfg
}

// logReload reports a config file change. The new values take effect at the
// next run of the loop.
func logReload(cmd *cobra.Command) func(*config.Config) {
	return func(next *config.Config) {
		eff := syncSettings(cmd, next)
		logger.Info("config reloaded, applies from the next run",
			"file", cfgMgr.ConfigFile(),
			"backend", eff.Target.Backend,
			"interval", eff.Sync.Interval,
			"book_delay", eff.Sync.BookDelay)
		if err := eff.Validate(); err != nil {
			logger.Warn("reloaded config is incomplete", "error", err)
		}
	}
}

// syncLoop repeats runs until ctx is cancelled. Failed runs are logged and
// retried at the next tick.
func syncLoop(ctx context.Context, cmd *cobra.Command) error {
	for {
		cfg := syncSettings(cmd, cfgMgr.Get())

		err := cfg.Validate()
		if err == nil {
			err = runSync(ctx, cfg)
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, booksync.ErrBooksFailed) {
			logger.Error("sync run failed", "error", err)
		}

		logger.Info("next sync scheduled", "in", cfg.Sync.Interval)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cfg.Sync.Interval):
		}
	}
}

// runSync performs one pass against the configured target and prints its
// summary.
func runSync(ctx context.Context, cfg *config.Config) error {
	r := cfg.Resolved()

	remote, err := newRemote(ctx, r)
	if err != nil {
		return err
	}
	writer, err := newWriter(ctx, r)
	if err != nil {
		return err
	}

	syncCfg := booksync.Config{
		Remote:    remote,
		Writer:    writer,
		BookDelay: r.Sync.BookDelay,
		Full:      r.Sync.Full,
		DryRun:    r.Sync.DryRun,
		Logger:    logger,
	}
	if r.History.Enabled && !r.Sync.DryRun {
		rec, err := openHistory(ctx, r)
		if err != nil {
			return err
		}
		defer rec.Close(ctx)
		syncCfg.Recorder = rec
	}

	syncer, err := booksync.New(syncCfg)
	if err != nil {
		return err
	}

	summary, runErr := syncer.Run(ctx)
	if summary != nil {
		if err := printSummary(summary); err != nil {
			return err
		}
	}
	return runErr
}

type resultView struct {
	BookID   string `json:"book_id" yaml:"book_id"`
	Title    string `json:"title" yaml:"title"`
	Sort     int64  `json:"sort" yaml:"sort"`
	Outcome  string `json:"outcome" yaml:"outcome"`
	Items    int    `json:"items" yaml:"items"`
	Replaced int    `json:"replaced,omitempty" yaml:"replaced,omitempty"`
	RecordID string `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Duration string `json:"duration" yaml:"duration"`
}

type summaryView struct {
	RunID    string       `json:"run_id" yaml:"run_id"`
	Cursor   int64        `json:"cursor" yaml:"cursor"`
	DryRun   bool         `json:"dry_run" yaml:"dry_run"`
	Total    int          `json:"total" yaml:"total"`
	Synced   int          `json:"synced" yaml:"synced"`
	Skipped  int          `json:"skipped" yaml:"skipped"`
	Failed   int          `json:"failed" yaml:"failed"`
	Planned  int          `json:"planned,omitempty" yaml:"planned,omitempty"`
	Duration string       `json:"duration" yaml:"duration"`
	Books    []resultView `json:"books" yaml:"books"`
}

func newSummaryView(s *booksync.Summary) summaryView {
	v := summaryView{
		RunID:    s.RunID,
		Cursor:   s.Cursor,
		DryRun:   s.DryRun,
		Total:    s.Total,
		Synced:   s.Synced,
		Skipped:  s.Skipped,
		Failed:   s.Failed,
		Planned:  s.Planned,
		Duration: s.Finished.Sub(s.Started).Round(time.Millisecond).String(),
		Books:    make([]resultView, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		rv := resultView{
			BookID:   r.Book.BookID,
			Title:    r.Book.Title,
			Sort:     r.Book.Sort,
			Outcome:  string(r.Outcome),
			Items:    r.Items,
			Replaced: r.Replaced,
			RecordID: r.RecordID,
			Duration: r.Duration.Round(time.Millisecond).String(),
		}
		if r.Err != nil {
			rv.Error = r.Err.Error()
		}
		v.Books = append(v.Books, rv)
	}
	return v
}

func printSummary(s *booksync.Summary) error {
	v := newSummaryView(s)
	if output.IsStructured() {
		return output.Print(v)
	}

	for _, b := range v.Books {
		line := fmt.Sprintf("%-8s %s (%d items)", b.Outcome, b.Title, b.Items)
		if b.Error != "" {
			line += ": " + b.Error
		}
		fmt.Println(line)
	}
	fmt.Printf("\nRun %s: %d books, %d synced, %d skipped, %d failed", v.RunID, v.Total, v.Synced, v.Skipped, v.Failed)
	if v.DryRun {
		fmt.Printf(", %d planned (dry run)", v.Planned)
	}
	fmt.Printf(" in %s\n", v.Duration)
	return nil
}
