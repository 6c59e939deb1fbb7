package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/marginalia/internal/config"
	"github.com/jackzampolin/marginalia/internal/home"
	"github.com/jackzampolin/marginalia/internal/logging"
	"github.com/jackzampolin/marginalia/internal/output"
	"github.com/jackzampolin/marginalia/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

// Set up by the root PersistentPreRunE for every subcommand.
var (
	cfgMgr    *config.Manager
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "marginalia",
	Short: "Sync WeRead highlights and notes into a knowledge base",
	Long: `Marginalia copies the bookmarks, reviews and chapter outlines of every
book on your WeRead shelf into a knowledge base, one page per book.

Runs are incremental: the highest sort value already stored in the target
is the cursor, and only books updated past it are fetched and rewritten.

Targets:
  - a Notion database (default)
  - a local DefraDB node (see 'marginalia defra')`,
	Version:      version.GitRelease,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.Parse(outputFormat)
		if err != nil {
			return err
		}
		output.Set(format)

		h, err := getHome()
		if err != nil {
			return err
		}

		file := cfgFile
		if file == "" && homeDir != "" && h.ConfigExists() {
			file = h.ConfigPath()
		}
		cfgMgr, err = config.NewManager(file)
		if err != nil {
			return err
		}

		cfg := cfgMgr.Get()
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		logFile := cfg.Log.File
		if logFile == "" {
			logFile = h.LogFilePath()
		}
		logger, logCloser, err = logging.New(logging.Config{Level: level, File: logFile})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.marginalia/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "marginalia home directory (default: ~/.marginalia)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log.level)",
	)

	rootCmd.AddCommand(versionCmd)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}
