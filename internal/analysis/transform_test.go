package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/pkg/contracts/domain"
)

func TestBoxCox(t *testing.T) {
	tests := []struct {
		name   string
		x      []float64
		lambda float64
		want   []float64
	}{
		{name: "log at zero lambda", x: []float64{1, math.E}, lambda: 0, want: []float64{0, 1}},
		{name: "identity shift at one", x: []float64{1, 5}, lambda: 1, want: []float64{0, 4}},
		{
			name:   "default lambda",
			x:      []float64{16},
			lambda: DefaultBoxCoxLambda,
			want:   []float64{(math.Pow(16, -0.42) - 1) / -0.42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoxCox(tt.x, tt.lambda)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}

	_, err := BoxCox([]float64{3, 0}, DefaultBoxCoxLambda)
	assert.ErrorIs(t, err, ErrNonPositive)
}

func TestYeoJohnsonWith(t *testing.T) {
	x := []float64{-2, -0.5, 0, 0.5, 3}

	assert.InDeltaSlice(t, x, YeoJohnsonWith(x, 1), 1e-12)

	got := YeoJohnsonWith([]float64{math.E - 1, -(math.E - 1)}, 0)
	assert.InDelta(t, 1, got[0], 1e-12)

	got = YeoJohnsonWith([]float64{-(math.E - 1)}, 2)
	assert.InDelta(t, -1, got[0], 1e-12)
}

func TestYeoJohnsonLambdaMaximizesLikelihood(t *testing.T) {
	// skewed sample: cube roots of the days of a month
	x := make([]float64, 0, 31)
	for d := 1; d <= 31; d++ {
		x = append(x, math.Cbrt(float64(d)))
	}

	_, lambda := YeoJohnson(x)
	require.GreaterOrEqual(t, lambda, yeoJohnsonLambdaMin)
	require.LessOrEqual(t, lambda, yeoJohnsonLambdaMax)

	best := yeoJohnsonLLF(x, lambda)
	for _, delta := range []float64{-0.1, -0.01, 0.01, 0.1} {
		l := lambda + delta
		if l < yeoJohnsonLambdaMin || l > yeoJohnsonLambdaMax {
			continue
		}
		assert.GreaterOrEqual(t, best, yeoJohnsonLLF(x, l), "lambda %g", l)
	}

	assert.Equal(t, 1.0, YeoJohnsonLambda([]float64{4}))
}

func TestGoldenSection(t *testing.T) {
	got := goldenSection(func(x float64) float64 { return (x - 0.7) * (x - 0.7) }, -2, 2, 1e-9)
	assert.InDelta(t, 0.7, got, 1e-6)
}

func TestGaussianizedFeatures(t *testing.T) {
	var subset []domain.Trip
	for i, pickup := range []string{
		"2019-01-02 08:10:00", "2019-01-09 12:30:00", "2019-01-15 17:45:00",
		"2019-01-21 06:05:00", "2019-01-30 21:55:00",
	} {
		subset = append(subset, ride(132, 138, domain.FleetYellow, pickup, float64(10+5*i)))
	}

	g, err := GaussianizedFeatures(subset, DefaultBoxCoxLambda)
	require.NoError(t, err)

	rows, cols := g.Frame.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, FeatureColumns, g.Frame.Names())

	wantDuration, err := BoxCox([]float64{10, 15, 20, 25, 30}, DefaultBoxCoxLambda)
	require.NoError(t, err)
	assert.InDeltaSlice(t, wantDuration, g.Frame.Col(FeatureDuration).Float(), 1e-12)
	assert.Equal(t, []float64{8, 12, 17, 6, 21}, g.Frame.Col(FeatureHour).Float())

	_, err = GaussianizedFeatures(subset[:1], DefaultBoxCoxLambda)
	assert.Error(t, err)
}

func TestScottBins(t *testing.T) {
	x := make([]float64, 10)
	for i := range x {
		x[i] = float64(i)
	}
	assert.Equal(t, 2, ScottBins(x))
	assert.Equal(t, 1, ScottBins([]float64{3, 3, 3}))
	assert.Equal(t, 1, ScottBins(nil))
}
