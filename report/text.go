package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/stats"
)

// WriteGlobalText writes the run configuration, the global summaries and
// the Welch test as a plain-text report.
func WriteGlobalText(w io.Writer, res *harness.Result) error {
	cfg := res.Config

	lines := []string{
		"=== LOOKUP BENCHMARK: RANGE VS MAP (BLOCKED) ===",
		"",
		"Elements: " + humanize.Comma(int64(cfg.Elements)),
		"Queries: " + humanize.Comma(int64(cfg.Queries)),
		"Executed: " + humanize.Comma(int64(res.Executed())),
		"Blocks: " + strconv.Itoa(cfg.Blocks),
		"Seed: " + strconv.FormatInt(res.Seed, 10),
		"Elapsed: " + res.Elapsed.String(),
		"",
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	if err := writeSummaryBlock(w, "GLOBAL STATISTICS - RANGE", res.Range); err != nil {
		return err
	}
	if err := writeSummaryBlock(w, "GLOBAL STATISTICS - MAP", res.Map); err != nil {
		return err
	}

	return writeWelchBlock(w, res.Welch)
}

// Analysis is the offline analysis of a samples file.
type Analysis struct {
	Source      string                  `json:"source"`
	Range       stats.Summary           `json:"range"`
	Map         stats.Summary           `json:"map"`
	Welch       stats.WelchResult       `json:"welch"`
	MannWhitney stats.MannWhitneyResult `json:"mann_whitney"`
}

// Analyze summarizes both timing columns of samples and tests them
// against each other.
func Analyze(source string, samples []harness.Sample) (Analysis, error) {
	rangeNs := make([]uint64, len(samples))
	mapNs := make([]uint64, len(samples))
	for i, s := range samples {
		rangeNs[i] = s.RangeNs
		mapNs[i] = s.MapNs
	}

	a := Analysis{Source: source}

	var err error

	if a.Range, err = stats.Summarize(rangeNs); err != nil {
		return a, fmt.Errorf("range summary: %w", err)
	}
	if a.Map, err = stats.Summarize(mapNs); err != nil {
		return a, fmt.Errorf("map summary: %w", err)
	}
	if a.Welch, err = stats.Welch(rangeNs, mapNs); err != nil {
		return a, fmt.Errorf("welch test: %w", err)
	}
	if a.MannWhitney, err = stats.MannWhitney(rangeNs, mapNs); err != nil {
		return a, fmt.Errorf("mann-whitney test: %w", err)
	}

	return a, nil
}

// WriteAnalysis writes a in the same layout as WriteGlobalText.
func WriteAnalysis(w io.Writer, a Analysis) error {
	if _, err := fmt.Fprintf(w, "=== SAMPLE ANALYSIS: %s ===\n\n", a.Source); err != nil {
		return err
	}

	if err := writeSummaryBlock(w, "DESCRIPTIVE STATISTICS - RANGE", a.Range); err != nil {
		return err
	}
	if err := writeSummaryBlock(w, "DESCRIPTIVE STATISTICS - MAP", a.Map); err != nil {
		return err
	}
	if err := writeWelchBlock(w, a.Welch); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n=== MANN-WHITNEY U TEST ===\nu: %v\np: %v\n",
		a.MannWhitney.U, a.MannWhitney.P)

	return err
}

func writeSummaryBlock(w io.Writer, title string, s stats.Summary) error {
	_, err := fmt.Fprintf(w,
		"=== %s ===\n"+
			"n: %d\nmean: %v\nmedian: %v\nstd_pop: %v\nstd_sample: %v\n"+
			"q1: %v\nq3: %v\nmin: %v\nmax: %v\n\n",
		title,
		s.N, s.Mean, s.Median, s.StdPop, s.StdSample,
		s.Q1, s.Q3, s.Min, s.Max,
	)

	return err
}

func writeWelchBlock(w io.Writer, r stats.WelchResult) error {
	_, err := fmt.Fprintf(w,
		"=== WELCH T-TEST ===\n"+
			"t: %v\ndf: %v\np_two_tailed: %v\n"+
			"p_left (range < map): %v\np_right (range > map): %v\n",
		r.T, r.DF, r.PTwoTailed, r.PLeft, r.PRight,
	)

	return err
}
