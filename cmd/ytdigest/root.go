package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytdigest/internal/app"
)

var (
	cfg     app.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ytdigest",
	Short: "YouTube subscription digest",
	Long: `ytdigest summarises new videos from your YouTube subscriptions and
publishes the digest to Notion.

Example usage:
  ytdigest run                          # previous day 07:00 until now
  ytdigest run --start 2026-10-01T00:00:00Z --skip-notion
  ytdigest preview summary.md           # show the Notion blocks for a summary
  ytdigest serve                        # HTTP trigger on HTTP_ADDR`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = app.LoadConfig()
		level := app.ParseLevel(cfg.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
