package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect describes one supported database
type Dialect struct {
	Name   string
	Driver string
	// Numbered placeholders ($1, $2, ...) instead of ?
	Numbered bool
}

// Supported dialects
var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite"}
	Postgres = Dialect{Name: "postgres", Driver: "pgx", Numbered: true}
	MySQL    = Dialect{Name: "mysql", Driver: "mysql"}
)

// ParseDSN selects the dialect from the scheme of dsn and returns the
// connection string expected by its driver
func ParseDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return Dialect{}, "", fmt.Errorf("empty storage DSN")
	}

	scheme, rest, found := strings.Cut(dsn, "://")
	if !found {
		return SQLite, dsn, nil
	}

	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3", "file":
		if rest == "" {
			return Dialect{}, "", fmt.Errorf("sqlite DSN without path: %q", dsn)
		}
		return SQLite, rest, nil
	case "postgres", "postgresql":
		return Postgres, dsn, nil
	case "mysql":
		cfg, err := mysql.ParseDSN(rest)
		if err != nil {
			return Dialect{}, "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		cfg.ParseTime = true
		return MySQL, cfg.FormatDSN(), nil
	}
	return Dialect{}, "", fmt.Errorf("unsupported storage scheme %q", scheme)
}

// Rebind rewrites ? placeholders for the dialect
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
