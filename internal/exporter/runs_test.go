package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/pkg/contracts/domain"
)

func TestTripExporter_WriteStageReport(t *testing.T) {
	_, paths := setupTestEnv(t)
	exp := NewTripExporter(paths, nil)

	path := paths.StagesFile(2019, 1)
	require.NoError(t, exp.WriteStageReport(path, []domain.StageReport{
		{Stage: "sanitize", RowsIn: 8, RowsOut: 6},
		{Stage: "route_filter", RowsIn: 6, RowsOut: 6},
		{Stage: "enrich", RowsIn: 0, RowsOut: 0},
	}))

	assert.Equal(t, [][]string{
		StageHeaders,
		{"sanitize", "8", "6", "2", "25.0000"},
		{"route_filter", "6", "6", "0", "0.0000"},
		{"enrich", "0", "0", "0", "0.0000"},
	}, readCSV(t, path))
}

func TestTripExporter_AppendRunHistory(t *testing.T) {
	_, paths := setupTestEnv(t)
	exp := NewTripExporter(paths, nil)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []domain.RunSummary{
		{
			RunID: "a", Year: 2019, Month: 1,
			Fleets: []domain.Fleet{domain.FleetYellow, domain.FleetGreen},
			Status: domain.RunStatusCompleted, RowsLoaded: 10, RowsRetained: 7,
			StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		},
		{
			RunID: "b", Year: 2019, Month: 2,
			Fleets: []domain.Fleet{domain.FleetFHV},
			Status: domain.RunStatusFailed, FromCache: true,
			Error: "[data] load: no trips loaded for 2019-02",
		},
	}
	for _, r := range runs {
		require.NoError(t, exp.AppendRunHistory(paths.RunHistoryFile(), r))
	}

	records := readCSV(t, paths.RunHistoryFile())
	require.Len(t, records, 3, "one header and one row per run")
	assert.Equal(t, RunHistoryHeaders, records[0])
	assert.Equal(t, []string{
		"a", "2019", "1", "yellow|green", "completed", "10", "7", "false",
		"2024-03-01T12:00:00Z", "2024-03-01T12:00:01Z", "1.500", "",
	}, records[1])
	assert.Equal(t, "b", records[2][0])
	assert.Equal(t, "failed", records[2][4])
	assert.Equal(t, "true", records[2][7])
	assert.Equal(t, "", records[2][8])
	assert.Equal(t, runs[1].Error, records[2][11])
}
