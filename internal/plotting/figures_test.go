package plotting

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/analysis"
	"taxipulse/internal/config"
	"taxipulse/pkg/contracts/domain"
)

func newTestRenderer(t *testing.T, ext string) *Renderer {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	return NewRenderer(paths, ext, nil)
}

func assertFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRendererFormats(t *testing.T) {
	stats := []domain.ZoneStat{{Zone: 1, Pickups: 3}, {Zone: 2, Pickups: 0}, {Zone: 3, Pickups: 7}}

	for _, ext := range []string{"pdf", "svg", "png"} {
		t.Run(ext, func(t *testing.T) {
			r := newTestRenderer(t, ext)
			path, err := r.PickupsPerZone(stats, domain.Period{Year: 2019, Month: 1})
			require.NoError(t, err)
			assert.Equal(t, "."+ext, filepath.Ext(path))
			assertFile(t, path)
		})
	}
}

func TestRendererNoData(t *testing.T) {
	r := newTestRenderer(t, "svg")

	_, err := r.PickupsPerZone(nil, domain.Period{Year: 2019, Month: 1})
	assert.ErrorIs(t, err, ErrNoData)
	_, err = r.TravelTimeFrom(nil)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = r.Histogram(nil, 0, "empty", "x")
	assert.ErrorIs(t, err, ErrNoData)

	var empty analysis.WeekdayProfile
	for wd := range empty.Means {
		for h := range empty.Means[wd] {
			empty.Means[wd][h] = math.NaN()
		}
	}
	_, err = r.WeekdayProfile(empty, "empty")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRendererFigures(t *testing.T) {
	r := newTestRenderer(t, "svg")

	path, err := r.TravelTimeFrom([]domain.RouteAverage{
		{PickupZone: 132, DropoffZone: 138, Trips: 2, MeanMinutes: 25},
		{PickupZone: 132, DropoffZone: 230, Trips: 1, MeanMinutes: 50},
	})
	require.NoError(t, err)
	assertFile(t, path)

	days := []analysis.DailyRides{
		{Date: "2019-01-01", Total: 3, Counts: map[domain.Fleet]int{domain.FleetYellow: 2, domain.FleetFHV: 1}},
		{Date: "2019-01-02", Counts: map[domain.Fleet]int{}},
		{Date: "2019-01-03", Total: 1, Counts: map[domain.Fleet]int{domain.FleetGreen: 1}},
	}
	paths, err := r.RidesOverTime(days, domain.Period{Year: 2019, Month: 1})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assertFile(t, p)
	}

	var profile analysis.WeekdayProfile
	profile.Labels = make([]string, 24)
	for h := range profile.Labels {
		profile.Labels[h] = analysis.HourBinLabel(h)
		for wd := range profile.Means {
			profile.Means[wd][h] = float64(20 + wd + h)
		}
	}
	profile.Means[2][5] = math.NaN()
	path, err = r.WeekdayProfile(profile, "profile")
	require.NoError(t, err)
	assertFile(t, path)
}

func TestRendererCorrelationAndHistograms(t *testing.T) {
	r := newTestRenderer(t, "svg")

	frame := dataframe.New(
		series.New([]float64{1, 2, 3, 4}, series.Float, "a"),
		series.New([]float64{4, 1, 3, 2}, series.Float, "b"),
	)
	corr, err := analysis.CorrelationMatrix(frame)
	require.NoError(t, err)

	path, err := r.CorrelationHeatmap(corr, "correlations")
	require.NoError(t, err)
	assertFile(t, path)

	hists, err := r.FeatureHistograms(map[string][]float64{
		"a": {1, 2, 3, 4},
		"b": {},
	}, []string{"a", "b"}, "raw")
	require.NoError(t, err)
	require.Len(t, hists, 1)
	assert.Contains(t, hists[0], "raw-a")

	ev := analysis.Evaluation{
		Predicted: []float64{1.1, 1.9, 3.2},
		Residuals: []float64{-0.1, 0.1, -0.2},
		Weights:   []float64{0.5, 1, -0.3},
	}
	diag, err := r.RegressionDiagnostics("ols", []float64{1, 2, 3}, ev, "trip duration")
	require.NoError(t, err)
	assert.Len(t, diag, 3)

	_, err = r.RegressionDiagnostics("ols", []float64{1}, ev, "x")
	assert.ErrorIs(t, err, ErrNoData)
}
