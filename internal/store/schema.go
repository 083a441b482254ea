package store

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS zones (
		location_id INTEGER NOT NULL PRIMARY KEY,
		borough     VARCHAR(64) NOT NULL,
		zone        VARCHAR(128) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS zone_pickups (
		year     INTEGER NOT NULL,
		month    INTEGER NOT NULL,
		zone     INTEGER NOT NULL,
		pickups  INTEGER NOT NULL,
		dropoffs INTEGER NOT NULL,
		PRIMARY KEY (year, month, zone)
	)`,
	`CREATE TABLE IF NOT EXISTS zone_travel_times (
		year         INTEGER NOT NULL,
		month        INTEGER NOT NULL,
		pickup_zone  INTEGER NOT NULL,
		dropoff_zone INTEGER NOT NULL,
		trips        INTEGER NOT NULL,
		mean_minutes DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (year, month, pickup_zone, dropoff_zone)
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		run_id        VARCHAR(64) NOT NULL PRIMARY KEY,
		year          INTEGER NOT NULL,
		month         INTEGER NOT NULL,
		status        VARCHAR(16) NOT NULL,
		fleets        VARCHAR(64) NOT NULL,
		rows_loaded   INTEGER NOT NULL,
		rows_retained INTEGER NOT NULL,
		from_cache    BOOLEAN NOT NULL,
		stages        TEXT NOT NULL,
		error         TEXT NOT NULL,
		started_at    TIMESTAMP NOT NULL,
		finished_at   TIMESTAMP NOT NULL
	)`,
}
