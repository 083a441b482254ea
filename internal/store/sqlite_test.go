package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/config"
	"taxipulse/pkg/contracts/domain"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{
		DSN:          "sqlite://" + filepath.Join(t.TempDir(), "taxipulse.db"),
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	require.NoError(t, s.Migrate(ctx), "migrations are idempotent")

	zones := []domain.Zone{
		{LocationID: 132, Borough: "Queens", Name: "JFK Airport"},
		{LocationID: 138, Borough: "Queens", Name: "LaGuardia Airport"},
	}
	require.NoError(t, s.SaveZones(ctx, zones))
	require.NoError(t, s.SaveZones(ctx, zones))

	got, err := s.ListZones(ctx)
	require.NoError(t, err)
	assert.Equal(t, zones, got)

	z, err := s.GetZone(ctx, 138)
	require.NoError(t, err)
	assert.Equal(t, "LaGuardia Airport", z.Name)

	period := domain.Period{Year: 2019, Month: 1}
	stats := []domain.ZoneStat{{Zone: 132, Pickups: 10, Dropoffs: 2}, {Zone: 133}}
	travel := []domain.RouteAverage{{PickupZone: 132, DropoffZone: 138, Trips: 3, MeanMinutes: 24.5}}
	require.NoError(t, s.SavePeriodStats(ctx, period, []domain.ZoneStat{{Zone: 1, Pickups: 99}}, nil))
	require.NoError(t, s.SavePeriodStats(ctx, period, stats, travel))

	gotStats, err := s.PickupsByZone(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, stats, gotStats)

	gotTravel, err := s.TravelTimesFrom(ctx, period, 132)
	require.NoError(t, err)
	assert.Equal(t, travel, gotTravel)

	none, err := s.PickupsByZone(ctx, domain.Period{Year: 2019, Month: 2})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRuns(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"older", "newer"} {
		run := domain.RunSummary{
			RunID:        id,
			Year:         2019,
			Month:        1,
			Fleets:       []domain.Fleet{domain.FleetGreen},
			Status:       domain.RunStatusCompleted,
			RowsLoaded:   10,
			RowsRetained: 8,
			Stages:       []domain.StageReport{{Stage: "sanitize", RowsIn: 10, RowsOut: 8}},
			StartedAt:    base.Add(time.Duration(i) * time.Hour),
			FinishedAt:   base.Add(time.Duration(i)*time.Hour + time.Second),
		}
		require.NoError(t, s.SaveRun(ctx, run))
		require.NoError(t, s.SaveRun(ctx, run))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "newer", runs[0].RunID)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(time.Hour)))
	assert.Equal(t, []domain.Fleet{domain.FleetGreen}, runs[0].Fleets)
	assert.Len(t, runs[0].Stages, 1)
}
