package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/weiihann/lookupbench/config"
	"github.com/weiihann/lookupbench/report"
	"github.com/weiihann/lookupbench/store"
	"github.com/weiihann/lookupbench/workload"
)

func newAnalyzeCmd(logger *slog.Logger) *cobra.Command {
	var (
		bins  int
		alpha float64
	)

	cmd := &cobra.Command{
		Use:   "analyze <samples.csv>",
		Short: "Analyze a samples CSV written by run",
		Long: `Recompute descriptive statistics, Welch's t-test and the
Mann-Whitney U test from a samples CSV, and optionally plot histograms.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open samples: %w", err)
			}
			defer f.Close()

			samples, err := report.ReadSamplesCSV(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			logger.InfoContext(cmd.Context(), "samples loaded",
				slog.String("path", path),
				slog.Int("samples", len(samples)),
			)

			a, err := report.Analyze(path, samples)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			if err := report.WriteAnalysis(out, a); err != nil {
				return err
			}

			fmt.Fprintln(out, report.Verdict(a.Welch, alpha))

			if bins > 0 {
				opts := report.DefaultHistogramOptions()
				opts.Bins = bins

				fmt.Fprintln(out)
				return report.WriteHistograms(out, samples, opts)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&bins, "histogram-bins", 0,
		"Bins per sample histogram (0 = no histograms)")
	flags.Float64Var(&alpha, "alpha", report.DefaultAlpha,
		"Significance level for the verdict")

	return cmd
}

func newHistoryCmd(logger *slog.Logger) *cobra.Command {
	var (
		limit      int
		runID      string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded in the history database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile(cmd), cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("no history database: set --db-path or db_path")
			}

			db, err := store.NewSQLiteStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if runID != "" {
				blocks, err := db.RunBlocks(ctx, runID)
				if err != nil {
					return err
				}
				if outputJSON {
					return writeJSON(out, blocks)
				}
				return writeBlocksTable(out, blocks)
			}

			runs, err := db.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			logger.DebugContext(ctx, "history loaded",
				slog.String("db", cfg.DBPath),
				slog.Int("runs", len(runs)),
			)

			if outputJSON {
				return writeJSON(out, runs)
			}
			return writeRunsTable(out, runs)
		},
	}

	flags := cmd.Flags()
	flags.String("db-path", "",
		"SQLite database recording run history")
	flags.IntVar(&limit, "limit", 20,
		"Maximum number of runs to list")
	flags.StringVar(&runID, "run", "",
		"Show the blocks of one run instead of the run list")
	flags.BoolVar(&outputJSON, "json", false,
		"Output as JSON instead of a table")

	return cmd
}

func writeRunsTable(out io.Writer, runs []store.Run) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	fmt.Fprintln(w, "ID\tSTARTED\tELEMENTS\tEXECUTED\tRANGE MEAN\tMAP MEAN\tT\tP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fns\t%.2fns\t%.3f\t%.3g\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			humanize.Comma(int64(r.Elements)),
			humanize.Comma(int64(r.Executed)),
			r.RangeMean, r.MapMean, r.T, r.PTwoTailed,
		)
	}

	return w.Flush()
}

func writeBlocksTable(out io.Writer, blocks []store.Block) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	fmt.Fprintln(w, "BLOCK\tN\tRANGE MEAN\tRANGE MEDIAN\tMAP MEAN\tMAP MEDIAN")
	for _, b := range blocks {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n",
			b.Block, humanize.Comma(int64(b.N)),
			b.RangeMean, b.RangeMedian, b.MapMean, b.MapMedian,
		)
	}

	return w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func newWorkloadCmd(logger *slog.Logger) *cobra.Command {
	var (
		elements int
		count    int
		seed     int64
		output   string
	)

	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Export a query stream as JSONL",
		Long: `Write the query values a run with the same elements and seed
would draw, one JSON object per line.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			gen := workload.NewGenerator(workload.Config{
				Elements: elements,
				Seed:     seed,
			})

			summary, err := gen.Generate(w, count)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			logger.InfoContext(cmd.Context(), "workload generated",
				slog.Int64("seed", seed),
				slog.Int("queries", summary.TotalQueries),
				slog.Int("min_value", summary.MinValue),
				slog.Int("max_value", summary.MaxValue),
			)

			return nil
		},
	}

	d := config.Defaults()

	flags := cmd.Flags()
	flags.IntVar(&elements, "elements", d.Run.Elements,
		"Queries are drawn from [0, elements)")
	flags.IntVar(&count, "count", d.Run.Queries,
		"Number of queries to write")
	flags.Int64Var(&seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.StringVar(&output, "output", "",
		"Output file (default: stdout)")

	return cmd
}
