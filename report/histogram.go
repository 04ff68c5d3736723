package report

import (
	"fmt"
	"io"
	"time"

	"github.com/loov/hrtime"
	"github.com/weiihann/lookupbench/harness"
)

// HistogramOptions mirrors the knobs exposed on the command line.
type HistogramOptions struct {
	Bins            int
	ClampPercentile float64
}

// DefaultHistogramOptions uses 20 bins clamped at the 99.9th percentile.
func DefaultHistogramOptions() HistogramOptions {
	return HistogramOptions{Bins: 20, ClampPercentile: 0.999}
}

// WriteHistograms renders text histograms of the raw sample times for
// both structures.
func WriteHistograms(w io.Writer, samples []harness.Sample, opts HistogramOptions) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to plot")
	}

	rangeLaps := make([]time.Duration, len(samples))
	mapLaps := make([]time.Duration, len(samples))
	for i, s := range samples {
		rangeLaps[i] = time.Duration(s.RangeNs)
		mapLaps[i] = time.Duration(s.MapNs)
	}

	hopts := &hrtime.HistogramOptions{
		BinCount:        opts.Bins,
		NiceRange:       true,
		ClampPercentile: opts.ClampPercentile,
	}

	if _, err := fmt.Fprintf(w, "range lookup (%d samples)\n%v\n",
		len(rangeLaps), hrtime.NewDurationHistogram(rangeLaps, hopts)); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "map lookup (%d samples)\n%v\n",
		len(mapLaps), hrtime.NewDurationHistogram(mapLaps, hopts))

	return err
}
