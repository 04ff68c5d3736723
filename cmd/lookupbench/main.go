// Package main provides the CLI entry point for lookupbench, a
// micro-benchmark comparing membership tests on a contiguous integer range
// against a hash map.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var level slog.LevelVar

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger, &level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "lookupbench",
		Short: "Range vs hash map membership benchmark",
		Long: `Lookupbench times membership tests of random integers against a
contiguous integer range and a hash map holding the same elements, reports
per-block and global latency statistics and tests whether the mean lookup
times differ with Welch's t-test.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	root.PersistentFlags().String("config", "",
		"Config file (default: ./lookupbench.yaml if present)")

	root.AddCommand(
		newRunCmd(logger),
		newAnalyzeCmd(logger),
		newHistoryCmd(logger),
		newWorkloadCmd(logger),
	)

	return root
}

func configFile(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
