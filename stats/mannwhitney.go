package stats

import (
	"fmt"

	mstats "github.com/aclements/go-moremath/stats"
)

// MannWhitneyResult is the outcome of a two-sided Mann-Whitney U test.
type MannWhitneyResult struct {
	N1 int     `json:"n1"`
	N2 int     `json:"n2"`
	U  float64 `json:"u"`
	P  float64 `json:"p"`
}

// MannWhitney tests whether x and y are drawn from distributions with the
// same location, without any normality assumption.
func MannWhitney[T Number](x, y []T) (MannWhitneyResult, error) {
	if len(x) == 0 || len(y) == 0 {
		return MannWhitneyResult{}, ErrEmptyInput
	}

	res, err := mstats.MannWhitneyUTest(
		toFloats(x), toFloats(y), mstats.LocationDiffers,
	)
	if err != nil {
		return MannWhitneyResult{}, fmt.Errorf(
			"%w: %v", ErrInsufficientSamples, err,
		)
	}

	return MannWhitneyResult{
		N1: res.N1,
		N2: res.N2,
		U:  res.U,
		P:  res.P,
	}, nil
}

func toFloats[T Number](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}

	return out
}
