package stats

import (
	"math"
	"math/rand"
	"testing"

	mstats "github.com/aclements/go-moremath/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegIncBetaClosedForms(t *testing.T) {
	for _, x := range []float64{0.01, 0.2, 0.5, 0.77, 0.99} {
		for _, a := range []float64{0.5, 1, 2.5, 7} {
			// I_x(a, 1) = x^a
			assert.InDelta(t, math.Pow(x, a), RegIncBeta(a, 1, x), 1e-12,
				"I_%v(%v, 1)", x, a)
			// I_x(1, b) = 1 - (1-x)^b
			assert.InDelta(t, 1-math.Pow(1-x, a), RegIncBeta(1, a, x), 1e-12,
				"I_%v(1, %v)", x, a)
		}
	}

	for _, a := range []float64{0.5, 3, 40} {
		assert.InDelta(t, 0.5, RegIncBeta(a, a, 0.5), 1e-12)
	}
}

func TestRegIncBetaDomain(t *testing.T) {
	assert.Equal(t, 0.0, RegIncBeta(2, 3, 0))
	assert.Equal(t, 1.0, RegIncBeta(2, 3, 1))
	assert.True(t, math.IsNaN(RegIncBeta(-1, 3, 0.5)))
	assert.True(t, math.IsNaN(RegIncBeta(2, 3, 1.5)))
}

func TestStudentTCDFClosedForms(t *testing.T) {
	for _, x := range []float64{-30, -4, -1.5, -0.3, 0, 0.3, 1.5, 4, 30} {
		// df = 1 is the standard Cauchy distribution.
		cauchy := 0.5 + math.Atan(x)/math.Pi
		assert.InDelta(t, cauchy, StudentTCDF(x, 1), 1e-12, "df=1 t=%v", x)

		// df = 2 has an algebraic CDF.
		two := 0.5 + x/(2*math.Sqrt(2+x*x))
		assert.InDelta(t, two, StudentTCDF(x, 2), 1e-12, "df=2 t=%v", x)

		assert.InDelta(t, 1-StudentTCDF(x, 7.5), StudentTSF(x, 7.5), 1e-12)
	}
}

func TestStudentTCDFCriticalValues(t *testing.T) {
	tests := []struct {
		t, df, want float64
	}{
		{2.228138852, 10, 0.975},
		{1.812461123, 10, 0.95},
		{12.70620474, 1, 0.975},
		{1.962339081, 1000, 0.975},
		{1.959963985, 1e6, 0.975},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, StudentTCDF(tt.t, tt.df), 1e-6,
			"t=%v df=%v", tt.t, tt.df)
	}
}

func TestStudentTCDFMatchesReference(t *testing.T) {
	for _, df := range []float64{1.3, 3, 8, 17.25, 120, 500} {
		ref := mstats.TDist{V: df}
		for _, x := range []float64{-6, -2.2, -0.7, 0.1, 1.1, 2.9, 8} {
			assert.InDelta(t, ref.CDF(x), StudentTCDF(x, df), 1e-8,
				"df=%v t=%v", df, x)
		}
	}
}

func TestStudentTCDFEdges(t *testing.T) {
	assert.Equal(t, 1.0, StudentTCDF(math.Inf(1), 4))
	assert.Equal(t, 0.0, StudentTCDF(math.Inf(-1), 4))
	assert.True(t, math.IsNaN(StudentTCDF(1, 0)))
	assert.True(t, math.IsNaN(StudentTCDF(math.NaN(), 3)))
}

func TestWelchClearlySeparated(t *testing.T) {
	x := []int{10, 12, 11, 13, 10}
	y := []int{20, 22, 21, 23, 20}

	res, err := Welch(x, y)
	require.NoError(t, err)

	assert.Equal(t, 5, res.NX)
	assert.Equal(t, 5, res.NY)
	assert.InDelta(t, -10/math.Sqrt(0.68), res.T, 1e-9)
	assert.InDelta(t, 8.0, res.DF, 1e-9)
	assert.Less(t, res.PTwoTailed, 1e-4)
	assert.Greater(t, res.PTwoTailed, 0.0)
	assert.Less(t, res.PLeft, 1e-4)
	assert.InDelta(t, 1.0, res.PRight, 1e-4)
	assert.InDelta(t, res.PTwoTailed/2, res.PLeft, 1e-12)
}

func TestWelchIdenticalSamples(t *testing.T) {
	x := []uint32{3, 8, 1, 9, 4}

	res, err := Welch(x, x)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.T)
	assert.Equal(t, 1.0, res.PTwoTailed)
	assert.Equal(t, 0.5, res.PLeft)
	assert.Equal(t, 0.5, res.PRight)
}

func TestWelchInsufficientSamples(t *testing.T) {
	_, err := Welch([]int{1}, []int{1, 2, 3})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = Welch([]int{1, 2}, []int{})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = Welch([]int{4, 4, 4}, []int{7, 7})
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestWelchMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	x := make([]float64, 40)
	y := make([]float64, 65)
	for i := range x {
		x[i] = 100 + 15*rng.NormFloat64()
	}
	for i := range y {
		y[i] = 108 + 30*rng.NormFloat64()
	}

	res, err := Welch(x, y)
	require.NoError(t, err)

	ref, err := mstats.TwoSampleWelchTTest(
		mstats.Sample{Xs: x}, mstats.Sample{Xs: y}, mstats.LocationDiffers,
	)
	require.NoError(t, err)

	assert.InDelta(t, ref.T, res.T, 1e-9)
	assert.InDelta(t, ref.DoF, res.DF, 1e-9)
	assert.InDelta(t, ref.P, res.PTwoTailed, 1e-7)
}

func TestMannWhitney(t *testing.T) {
	x := []uint32{10, 12, 11, 13, 10, 14, 9, 11}
	y := []uint32{20, 22, 21, 23, 20, 25, 19, 24}

	res, err := MannWhitney(x, y)
	require.NoError(t, err)

	assert.Equal(t, 8, res.N1)
	assert.Equal(t, 8, res.N2)
	assert.Less(t, res.P, 0.01)

	_, err = MannWhitney([]uint32{}, y)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
