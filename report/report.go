// Package report formats benchmark results into tables, CSV files and
// plain-text summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/stats"
)

// Generate writes a markdown report of res to w.
func Generate(w io.Writer, res *harness.Result) error {
	if res == nil || len(res.Blocks) == 0 {
		return fmt.Errorf("no results to report")
	}

	cfg := res.Config

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Elements: %s, queries: %s (%s executed), "+
		"blocks: %d, seed: %d\n",
		humanize.Comma(int64(cfg.Elements)),
		humanize.Comma(int64(cfg.Queries)),
		humanize.Comma(int64(res.Executed())),
		cfg.Blocks,
		res.Seed,
	)
	fmt.Fprintln(w)

	// Global table.
	fmt.Fprintln(w, "| Structure | N | Mean | Median | Std (pop) "+
		"| Std (sample) | Q1 | Q3 | Min | Max | Relative |")
	fmt.Fprintln(w, "|-----------|---|------|--------|-----------"+
		"|--------------|----|----|-----|-----|----------|")

	fastest := math.Min(res.Range.Mean, res.Map.Mean)

	writeSummaryRow(w, "range", res.Range, fastest)
	writeSummaryRow(w, "map", res.Map, fastest)

	fmt.Fprintln(w)

	// Per-block drift.
	fmt.Fprintln(w, "| Block | N | Range mean | Range median "+
		"| Map mean | Map median | Elapsed |")
	fmt.Fprintln(w, "|-------|---|------------|--------------"+
		"|----------|------------|---------|")

	for _, b := range res.Blocks {
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s | %s |\n",
			b.Block,
			humanize.Comma(int64(b.N)),
			formatNs(b.Range.Mean),
			formatNs(b.Range.Median),
			formatNs(b.Map.Mean),
			formatNs(b.Map.Median),
			b.Elapsed.Round(time.Millisecond),
		)
	}

	fmt.Fprintln(w)

	// Welch test.
	wr := res.Welch
	fmt.Fprintln(w, "| Welch t | df | p (two-tailed) "+
		"| p (range < map) | p (range > map) |")
	fmt.Fprintln(w, "|---------|----|----------------"+
		"|-----------------|-----------------|")
	fmt.Fprintf(w, "| %.4f | %.2f | %s | %s | %s |\n",
		wr.T, wr.DF,
		formatP(wr.PTwoTailed),
		formatP(wr.PLeft),
		formatP(wr.PRight),
	)

	return nil
}

// GenerateJSON writes res as JSON to w.
func GenerateJSON(w io.Writer, res *harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(res)
}

func writeSummaryRow(w io.Writer, name string, s stats.Summary, fastest float64) {
	relative := 1.0
	if fastest > 0 && s.Mean > 0 {
		relative = s.Mean / fastest
	}

	fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %.2fx |\n",
		name,
		humanize.Comma(int64(s.N)),
		formatNs(s.Mean),
		formatNs(s.Median),
		formatNs(s.StdPop),
		formatNs(s.StdSample),
		formatNs(s.Q1),
		formatNs(s.Q3),
		formatNs(s.Min),
		formatNs(s.Max),
		relative,
	)
}

func formatNs(ns float64) string {
	switch {
	case math.IsNaN(ns) || math.IsInf(ns, 0):
		return "-"
	case ns < 1e3:
		return fmt.Sprintf("%.2fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2fµs", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.2fms", ns/1e6)
	}

	return fmt.Sprintf("%.2fs", ns/1e9)
}

func formatP(p float64) string {
	switch {
	case math.IsNaN(p):
		return "-"
	case p != 0 && p < 1e-4:
		return fmt.Sprintf("%.3e", p)
	}

	return fmt.Sprintf("%.4f", p)
}
