package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/weiihann/lookupbench/config"
	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/metrics"
	"github.com/weiihann/lookupbench/report"
	"github.com/weiihann/lookupbench/store"
)

// Output file names written to the output directory.
const (
	samplesFile = "samples.csv"
	blocksFile  = "blocks.csv"
	globalFile  = "global.txt"
)

func newRunCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the membership benchmark",
		Long: `Build a range and a hash map of the configured size, time every
query against both in equal blocks, and report block and global statistics
plus a Welch t-test of range against map.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile(cmd), cmd.Flags())
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, cmd.OutOrStdout(), cfg)
		},
	}

	config.AddFlags(cmd.Flags())

	return cmd
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	stdout io.Writer,
	cfg config.Config,
) error {
	runner := harness.NewRunner(logger)

	if cfg.MetricsAddr != "" {
		recorder := metrics.NewRecorder()
		runner.Observer = recorder

		srv, err := metrics.Serve(cfg.MetricsAddr, recorder, logger)
		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	res, err := runner.Run(ctx, cfg.Run)
	if err != nil {
		return fmt.Errorf("run benchmark: %w", err)
	}

	if cfg.OutDir != "" {
		if err := writeOutputs(cfg.OutDir, res); err != nil {
			return err
		}

		logger.InfoContext(ctx, "outputs written",
			slog.String("dir", cfg.OutDir),
			slog.Int("samples", len(res.Samples)),
			slog.Int("blocks", len(res.Blocks)),
		)
	}

	if cfg.DBPath != "" {
		id, err := saveRun(ctx, cfg.DBPath, res)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "run recorded",
			slog.String("db", cfg.DBPath),
			slog.String("run_id", id),
		)
	}

	if cfg.JSON {
		if err := report.GenerateJSON(stdout, res); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
		return nil
	}

	if err := report.Generate(stdout, res); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	fmt.Fprintln(stdout, report.Verdict(res.Welch, cfg.Alpha))

	if cfg.HistogramBins > 0 && len(res.Samples) > 0 {
		opts := report.DefaultHistogramOptions()
		opts.Bins = cfg.HistogramBins

		fmt.Fprintln(stdout)
		if err := report.WriteHistograms(stdout, res.Samples, opts); err != nil {
			return fmt.Errorf("write histograms: %w", err)
		}
	}

	return nil
}

func writeOutputs(dir string, res *harness.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{samplesFile, func(w io.Writer) error { return report.WriteSamplesCSV(w, res.Samples) }},
		{blocksFile, func(w io.Writer) error { return report.WriteBlocksCSV(w, res.Blocks) }},
		{globalFile, func(w io.Writer) error { return report.WriteGlobalText(w, res) }},
	}

	for _, out := range outputs {
		if err := writeFile(filepath.Join(dir, out.name), out.write); err != nil {
			return err
		}
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

func saveRun(ctx context.Context, path string, res *harness.Result) (string, error) {
	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return "", fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, res)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}

	return id, nil
}
