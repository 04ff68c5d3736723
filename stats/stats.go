// Package stats computes descriptive statistics and two-sample location
// tests over latency samples.
package stats

import (
	"encoding/json"
	"errors"
	"math"
	"slices"
)

var (
	// ErrEmptyInput is returned when a statistic is requested over an
	// empty sequence.
	ErrEmptyInput = errors.New("empty input")

	// ErrInsufficientSamples is returned when a test needs more data
	// than it was given, or the data is degenerate.
	ErrInsufficientSamples = errors.New("insufficient samples")
)

// Number is the set of element types the engine accepts.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float64
}

// Summary holds the descriptive statistics of one sequence.
//
// StdSample is NaN when N is 1.
type Summary struct {
	N         int     `json:"n"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	StdPop    float64 `json:"std_pop"`
	StdSample float64 `json:"std_sample"`
	Q1        float64 `json:"q1"`
	Q3        float64 `json:"q3"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// MarshalJSON renders non-finite fields as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type wire struct {
		N         int      `json:"n"`
		Mean      *float64 `json:"mean"`
		Median    *float64 `json:"median"`
		StdPop    *float64 `json:"std_pop"`
		StdSample *float64 `json:"std_sample"`
		Q1        *float64 `json:"q1"`
		Q3        *float64 `json:"q3"`
		Min       *float64 `json:"min"`
		Max       *float64 `json:"max"`
	}

	return json.Marshal(wire{
		N:         s.N,
		Mean:      finite(s.Mean),
		Median:    finite(s.Median),
		StdPop:    finite(s.StdPop),
		StdSample: finite(s.StdSample),
		Q1:        finite(s.Q1),
		Q3:        finite(s.Q3),
		Min:       finite(s.Min),
		Max:       finite(s.Max),
	})
}

// UnmarshalJSON accepts null for any float field and maps it to NaN.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var w struct {
		N         int      `json:"n"`
		Mean      *float64 `json:"mean"`
		Median    *float64 `json:"median"`
		StdPop    *float64 `json:"std_pop"`
		StdSample *float64 `json:"std_sample"`
		Q1        *float64 `json:"q1"`
		Q3        *float64 `json:"q3"`
		Min       *float64 `json:"min"`
		Max       *float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*s = Summary{
		N:         w.N,
		Mean:      orNaN(w.Mean),
		Median:    orNaN(w.Median),
		StdPop:    orNaN(w.StdPop),
		StdSample: orNaN(w.StdSample),
		Q1:        orNaN(w.Q1),
		Q3:        orNaN(w.Q3),
		Min:       orNaN(w.Min),
		Max:       orNaN(w.Max),
	}

	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}

	return *v
}

// Summarize computes the descriptive statistics of values. Quantiles use
// linear interpolation between closest ranks on the sorted sequence
// (position q*(n-1)). The input slice is not modified.
func Summarize[T Number](values []T) (Summary, error) {
	n := len(values)
	if n == 0 {
		return Summary{}, ErrEmptyInput
	}

	mean, ssd := meanSSD(values)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := Summary{
		N:         n,
		Mean:      mean,
		Median:    quantile(sorted, 0.5),
		StdPop:    math.Sqrt(ssd / float64(n)),
		StdSample: math.NaN(),
		Q1:        quantile(sorted, 0.25),
		Q3:        quantile(sorted, 0.75),
		Min:       float64(sorted[0]),
		Max:       float64(sorted[n-1]),
	}

	if n > 1 {
		s.StdSample = math.Sqrt(ssd / float64(n-1))
	}

	return s, nil
}

// Quantile returns the q-quantile (0..1) of values using the same
// interpolation as Summarize.
func Quantile[T Number](values []T, q float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return quantile(sorted, q), nil
}

// quantile expects sorted to be non-empty and ascending.
func quantile[T Number](sorted []T, q float64) float64 {
	n := len(sorted)
	if q <= 0 {
		return float64(sorted[0])
	}
	if q >= 1 {
		return float64(sorted[n-1])
	}

	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, n-1)
	frac := pos - float64(lo)

	return float64(sorted[lo])*(1-frac) + float64(sorted[hi])*frac
}

// meanSSD returns the arithmetic mean and the sum of squared deviations
// from it, using two passes.
func meanSSD[T Number](values []T) (mean, ssd float64) {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean = sum / float64(len(values))

	for _, v := range values {
		d := float64(v) - mean
		ssd += d * d
	}

	return mean, ssd
}
