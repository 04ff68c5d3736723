package stats

import (
	"fmt"
	"math"
)

// WelchResult is the outcome of a Welch two-sample t-test of x against y.
type WelchResult struct {
	NX int     `json:"n_x"`
	NY int     `json:"n_y"`
	T  float64 `json:"t"`
	DF float64 `json:"df"`

	// PTwoTailed tests mean(x) != mean(y).
	PTwoTailed float64 `json:"p_two_tailed"`
	// PLeft tests mean(x) < mean(y).
	PLeft float64 `json:"p_left"`
	// PRight tests mean(x) > mean(y).
	PRight float64 `json:"p_right"`
}

// Welch runs a two-sample t-test that does not assume equal variances,
// with Welch–Satterthwaite degrees of freedom.
func Welch[T Number](x, y []T) (WelchResult, error) {
	nx, ny := len(x), len(y)
	if nx < 2 || ny < 2 {
		return WelchResult{}, fmt.Errorf(
			"%w: need at least 2 values per sample, got %d and %d",
			ErrInsufficientSamples, nx, ny,
		)
	}

	meanX, ssdX := meanSSD(x)
	meanY, ssdY := meanSSD(y)

	fx, fy := float64(nx), float64(ny)
	varX := ssdX / (fx - 1)
	varY := ssdY / (fy - 1)

	sx := varX / fx
	sy := varY / fy
	se2 := sx + sy

	if se2 == 0 {
		return WelchResult{}, fmt.Errorf(
			"%w: both samples have zero variance", ErrInsufficientSamples,
		)
	}

	t := (meanX - meanY) / math.Sqrt(se2)
	df := se2 * se2 / (varX*varX/(fx*fx*(fx-1)) + varY*varY/(fy*fy*(fy-1)))

	pLeft := StudentTCDF(t, df)

	return WelchResult{
		NX:         nx,
		NY:         ny,
		T:          t,
		DF:         df,
		PTwoTailed: math.Min(1, 2*StudentTSF(math.Abs(t), df)),
		PLeft:      pLeft,
		PRight:     1 - pLeft,
	}, nil
}
