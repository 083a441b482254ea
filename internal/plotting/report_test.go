package plotting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/pkg/contracts/domain"
)

func TestWriteRunReport(t *testing.T) {
	started := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	report := RunReport{
		Summary: domain.RunSummary{
			RunID:        "run-1",
			Year:         2019,
			Month:        1,
			Fleets:       []domain.Fleet{domain.FleetYellow},
			Status:       domain.RunStatusCompleted,
			RowsLoaded:   10,
			RowsRetained: 7,
			Stages: []domain.StageReport{
				{Stage: "sanitize", RowsIn: 10, RowsOut: 8},
				{Stage: "route_filter", RowsIn: 8, RowsOut: 7},
			},
			StartedAt:  started,
			FinishedAt: started.Add(3 * time.Second),
		},
		RouteTrips:       120,
		BoxCoxLambda:     -0.42,
		YeoJohnsonLambda: 0.8,
		Models: []ModelResult{
			{Name: "ols", MSE: 0.01, R2: 0.3, Weights: 5},
			{Name: "polynomial-2", MSE: 0.009, R2: 0.35, Weights: 15},
		},
		Figures: []string{"/tmp/figures/pickups-per-zone.pdf"},
	}

	path := filepath.Join(t.TempDir(), "reports", "run_2019_01.pdf")
	require.NoError(t, WriteRunReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
