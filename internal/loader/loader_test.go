package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/config"
	"taxipulse/internal/shared/testutil"
	"taxipulse/pkg/contracts/domain"
)

func newArchive(t *testing.T, files map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testFetcher() *HTTPFetcher {
	return NewHTTPFetcher(config.SourceConfig{RequestsPerSec: 1000, UserAgent: "taxipulse-test"})
}

func TestLoader_Load(t *testing.T) {
	srv, hits := newArchive(t, map[string]string{
		"yellow_tripdata_2019-01.csv": yellowCSV,
		"fhv_tripdata_2019-01.csv":    "pickup_datetime,dropoff_datetime,PULocationID,DOLocationID\n2019-01-20 17:30:00,2019-01-20 17:52:00,79,230\n",
	})

	logger, handler := testutil.NewTestLogger(t)
	l := New(testFetcher(), srv.URL+"/{fleet}_tripdata_{year}-{month}.csv", WithLogger(logger))

	table, report := l.Load(context.Background(),
		[]domain.Fleet{domain.FleetYellow, domain.FleetGreen, domain.FleetFHV},
		[]int{2019}, []int{1})

	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, 3, report.Attempted)
	assert.Len(t, report.Loaded, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, domain.FleetGreen, report.Failed[0].Fleet)
	assert.Contains(t, report.Failed[0].Error, "status 404")

	assert.Equal(t, domain.CommonSchema, table.Columns)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, domain.FleetYellow, table.Rows[0].Fleet)
	assert.Equal(t, domain.FleetFHV, table.Rows[2].Fleet)
	assert.True(t, table.Rows[2].TipAmount.Absent)

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "No data available for extract")
	testutil.AssertNoErrors(t, handler)
}

func TestLoader_AllFailuresYieldEmptyTable(t *testing.T) {
	srv, _ := newArchive(t, nil)

	l := New(testFetcher(), srv.URL+"/{fleet}_{year}_{month}.csv")
	table, report := l.Load(context.Background(), []domain.Fleet{domain.FleetYellow}, []int{2019, 2020}, []int{1, 2})

	assert.Zero(t, table.Len())
	assert.Equal(t, 4, report.Attempted)
	assert.Len(t, report.Failed, 4)
}

func TestLoader_StopsOnCancelledContext(t *testing.T) {
	srv, hits := newArchive(t, map[string]string{"yellow_2019_01.csv": yellowCSV})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(testFetcher(), srv.URL+"/{fleet}_{year}_{month}.csv")
	table, report := l.Load(ctx, []domain.Fleet{domain.FleetYellow}, []int{2019}, []int{1})

	assert.Zero(t, hits.Load())
	assert.Zero(t, report.Attempted)
	assert.Zero(t, table.Len())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "taxipulse-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}
