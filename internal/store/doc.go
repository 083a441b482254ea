// Package store persists zones, per-period aggregates and run summaries in a
// SQL database.
//
// The dialect follows the DSN scheme:
//
//	sqlite:///path/to/file.db   modernc.org/sqlite (default, also bare paths)
//	postgres://user@host/db     github.com/jackc/pgx/v5/stdlib
//	mysql://user:pw@tcp(h)/db   github.com/go-sql-driver/mysql
//
// Queries are written with ? placeholders and rebound for postgres.
package store
