package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		want     Dialect
		wantConn string
		wantErr  bool
	}{
		{name: "bare path", dsn: "data/taxipulse.db", want: SQLite, wantConn: "data/taxipulse.db"},
		{name: "sqlite scheme", dsn: "sqlite://data/taxipulse.db", want: SQLite, wantConn: "data/taxipulse.db"},
		{name: "sqlite absolute", dsn: "sqlite:///var/lib/t.db", want: SQLite, wantConn: "/var/lib/t.db"},
		{
			name:     "postgres",
			dsn:      "postgres://user:pw@localhost:5432/taxi?sslmode=disable",
			want:     Postgres,
			wantConn: "postgres://user:pw@localhost:5432/taxi?sslmode=disable",
		},
		{name: "postgresql alias", dsn: "postgresql://localhost/taxi", want: Postgres, wantConn: "postgresql://localhost/taxi"},
		{name: "mysql", dsn: "mysql://user:pw@tcp(localhost:3306)/taxi", want: MySQL},
		{name: "empty", dsn: "  ", wantErr: true},
		{name: "sqlite without path", dsn: "sqlite://", wantErr: true},
		{name: "unknown scheme", dsn: "oracle://x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, conn, err := ParseDSN(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
			if tt.wantConn != "" {
				assert.Equal(t, tt.wantConn, conn)
			}
		})
	}
}

func TestParseDSNMySQLEnablesParseTime(t *testing.T) {
	_, conn, err := ParseDSN("mysql://user:pw@tcp(localhost:3306)/taxi")
	require.NoError(t, err)
	assert.Contains(t, conn, "parseTime=true")
	assert.Contains(t, conn, "tcp(localhost:3306)/taxi")
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE year = ? AND month = ? AND zone = ?`

	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, `SELECT a FROM t WHERE year = $1 AND month = $2 AND zone = $3`, Postgres.Rebind(q))
}
