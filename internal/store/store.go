package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taxipulse/internal/config"
	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("not found")

// Store is the SQL persistence layer
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to the database configured by cfg and pings it
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	dialect, conn, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(max(1, cfg.MaxOpenConns/2))
	}
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	s := New(db, dialect, logger)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", dialect.Name, err)
	}

	if dialect == SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			s.logger.WarnContext(ctx, "Could not enable WAL mode", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "Database connected", slog.String("dialect", dialect.Name))
	return s, nil
}

// New wraps an open handle
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  infrastructure.WithComponent(logger, "store"),
	}
}

// Close closes the handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect returns the dialect in use
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	s.logger.InfoContext(ctx, "Schema ready", slog.Int("tables", len(migrations)))
	return nil
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, s.dialect.Rebind(query), args...)
	return err
}

// inTx runs fn in a transaction, rolling back on error
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.ErrorContext(ctx, "Rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// SaveZones replaces the zone lookup
func (s *Store) SaveZones(ctx context.Context, zones []domain.Zone) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, `DELETE FROM zones`); err != nil {
			return fmt.Errorf("failed to clear zones: %w", err)
		}
		for _, z := range zones {
			if err := s.exec(ctx, tx,
				`INSERT INTO zones (location_id, borough, zone) VALUES (?, ?, ?)`,
				z.LocationID, z.Borough, z.Name); err != nil {
				return fmt.Errorf("failed to insert zone %d: %w", z.LocationID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Zones saved", slog.Int("zones", len(zones)))
	return nil
}

// SavePeriodStats replaces the aggregates of one period in a single
// transaction
func (s *Store) SavePeriodStats(ctx context.Context, period domain.Period, stats []domain.ZoneStat, travel []domain.RouteAverage) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, `DELETE FROM zone_pickups WHERE year = ? AND month = ?`, period.Year, period.Month); err != nil {
			return fmt.Errorf("failed to clear pickups: %w", err)
		}
		if err := s.exec(ctx, tx, `DELETE FROM zone_travel_times WHERE year = ? AND month = ?`, period.Year, period.Month); err != nil {
			return fmt.Errorf("failed to clear travel times: %w", err)
		}
		for _, st := range stats {
			if err := s.exec(ctx, tx,
				`INSERT INTO zone_pickups (year, month, zone, pickups, dropoffs) VALUES (?, ?, ?, ?, ?)`,
				period.Year, period.Month, st.Zone, st.Pickups, st.Dropoffs); err != nil {
				return fmt.Errorf("failed to insert pickups of zone %d: %w", st.Zone, err)
			}
		}
		for _, r := range travel {
			if err := s.exec(ctx, tx,
				`INSERT INTO zone_travel_times (year, month, pickup_zone, dropoff_zone, trips, mean_minutes) VALUES (?, ?, ?, ?, ?, ?)`,
				period.Year, period.Month, r.PickupZone, r.DropoffZone, r.Trips, r.MeanMinutes); err != nil {
				return fmt.Errorf("failed to insert travel time %d->%d: %w", r.PickupZone, r.DropoffZone, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Period stats saved",
		slog.Int("year", period.Year),
		slog.Int("month", period.Month),
		slog.Int("zones", len(stats)),
		slog.Int("routes", len(travel)))
	return nil
}

// SaveRun stores or replaces a run summary
func (s *Store) SaveRun(ctx context.Context, run domain.RunSummary) error {
	stages, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("failed to encode stages: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, `DELETE FROM runs WHERE run_id = ?`, run.RunID); err != nil {
			return fmt.Errorf("failed to clear run: %w", err)
		}
		return s.exec(ctx, tx,
			`INSERT INTO runs (run_id, year, month, status, fleets, rows_loaded, rows_retained, from_cache, stages, error, started_at, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Year, run.Month, string(run.Status), joinFleets(run.Fleets),
			run.RowsLoaded, run.RowsRetained, run.FromCache, string(stages), run.Error,
			run.StartedAt.UTC(), run.FinishedAt.UTC())
	})
}

func joinFleets(fleets []domain.Fleet) string {
	parts := make([]string, len(fleets))
	for i, f := range fleets {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func splitFleets(s string) []domain.Fleet {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	fleets := make([]domain.Fleet, len(parts))
	for i, p := range parts {
		fleets[i] = domain.Fleet(p)
	}
	return fleets
}

// ListZones returns every zone ordered by id
func (s *Store) ListZones(ctx context.Context) ([]domain.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT location_id, borough, zone FROM zones ORDER BY location_id`)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.LocationID, &z.Borough, &z.Name); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// GetZone returns one zone or ErrNotFound
func (s *Store) GetZone(ctx context.Context, id int) (domain.Zone, error) {
	var z domain.Zone
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT location_id, borough, zone FROM zones WHERE location_id = ?`), id).
		Scan(&z.LocationID, &z.Borough, &z.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Zone{}, fmt.Errorf("zone %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Zone{}, fmt.Errorf("query zone %d: %w", id, err)
	}
	return z, nil
}

// PickupsByZone returns the zone counts of one period ordered by zone
func (s *Store) PickupsByZone(ctx context.Context, period domain.Period) ([]domain.ZoneStat, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT zone, pickups, dropoffs FROM zone_pickups WHERE year = ? AND month = ? ORDER BY zone`),
		period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("query pickups: %w", err)
	}
	defer rows.Close()

	var stats []domain.ZoneStat
	for rows.Next() {
		var st domain.ZoneStat
		if err := rows.Scan(&st.Zone, &st.Pickups, &st.Dropoffs); err != nil {
			return nil, fmt.Errorf("scan pickups: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// TravelTimesFrom returns the mean travel times from pickup in one period
func (s *Store) TravelTimesFrom(ctx context.Context, period domain.Period, pickup int) ([]domain.RouteAverage, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT pickup_zone, dropoff_zone, trips, mean_minutes FROM zone_travel_times
			WHERE year = ? AND month = ? AND pickup_zone = ? ORDER BY dropoff_zone`),
		period.Year, period.Month, pickup)
	if err != nil {
		return nil, fmt.Errorf("query travel times: %w", err)
	}
	defer rows.Close()

	var out []domain.RouteAverage
	for rows.Next() {
		var r domain.RouteAverage
		if err := rows.Scan(&r.PickupZone, &r.DropoffZone, &r.Trips, &r.MeanMinutes); err != nil {
			return nil, fmt.Errorf("scan travel time: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRuns returns the latest runs first, at most limit of them
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT run_id, year, month, status, fleets, rows_loaded, rows_retained, from_cache, stages, error, started_at, finished_at
			FROM runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			r      domain.RunSummary
			status string
			fleets string
			stages string
		)
		if err := rows.Scan(&r.RunID, &r.Year, &r.Month, &status, &fleets, &r.RowsLoaded, &r.RowsRetained,
			&r.FromCache, &stages, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = domain.RunStatus(status)
		r.Fleets = splitFleets(fleets)
		if err := json.Unmarshal([]byte(stages), &r.Stages); err != nil {
			return nil, fmt.Errorf("decode stages of run %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
