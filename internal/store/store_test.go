package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/pkg/contracts/domain"
)

func newMockStore(t *testing.T, dialect Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, dialect, nil), mock
}

func TestSaveZones(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM zones").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO zones").WithArgs(132, "Queens", "JFK Airport").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO zones").WithArgs(138, "Queens", "LaGuardia Airport").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := s.SaveZones(context.Background(), []domain.Zone{
		{LocationID: 132, Borough: "Queens", Name: "JFK Airport"},
		{LocationID: 138, Borough: "Queens", Name: "LaGuardia Airport"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveZonesRollsBack(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM zones").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO zones").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.SaveZones(context.Background(), []domain.Zone{{LocationID: 1, Borough: "EWR", Name: "Newark Airport"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePeriodStatsPostgres(t *testing.T) {
	s, mock := newMockStore(t, Postgres)
	period := domain.Period{Year: 2019, Month: 1}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM zone_pickups WHERE year = $1 AND month = $2`)).
		WithArgs(2019, 1).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM zone_travel_times WHERE year = $1 AND month = $2`)).
		WithArgs(2019, 1).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO zone_pickups (year, month, zone, pickups, dropoffs) VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs(2019, 1, 132, 10, 4).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO zone_travel_times`)).
		WithArgs(2019, 1, 132, 138, 2, 25.5).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.SavePeriodStats(context.Background(), period,
		[]domain.ZoneStat{{Zone: 132, Pickups: 10, Dropoffs: 4}},
		[]domain.RouteAverage{{PickupZone: 132, DropoffZone: 138, Trips: 2, MeanMinutes: 25.5}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetZoneNotFound(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectQuery("SELECT location_id, borough, zone FROM zones WHERE location_id").
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{"location_id", "borough", "zone"}))

	_, err := s.GetZone(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns(t *testing.T) {
	s, mock := newMockStore(t, SQLite)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT run_id, year, month").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{
			"run_id", "year", "month", "status", "fleets", "rows_loaded", "rows_retained",
			"from_cache", "stages", "error", "started_at", "finished_at",
		}).AddRow(
			"r1", 2019, 1, "completed", "yellow,fhv", 100, 80,
			true, `[{"stage":"sanitize","rows_in":100,"rows_out":90}]`, "", started, started.Add(time.Minute),
		))

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, domain.RunStatusCompleted, r.Status)
	assert.Equal(t, []domain.Fleet{domain.FleetYellow, domain.FleetFHV}, r.Fleets)
	assert.True(t, r.FromCache)
	assert.Equal(t, []domain.StageReport{{Stage: "sanitize", RowsIn: 100, RowsOut: 90}}, r.Stages)
	assert.Equal(t, time.Minute, r.Duration())
	assert.NoError(t, mock.ExpectationsWereMet())
}
