package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/config"
	apierrors "taxipulse/internal/errors"
	"taxipulse/internal/store"
	"taxipulse/pkg/contracts/domain"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.Server.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Storage.DSN = "sqlite://" + filepath.Join(t.TempDir(), "api.db")
	cfg.Storage.MaxOpenConns = 1

	st, err := store.Open(ctx, cfg.Storage, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	require.NoError(t, st.SaveZones(ctx, []domain.Zone{
		{LocationID: 132, Borough: "Queens", Name: "JFK Airport"},
		{LocationID: 138, Borough: "Queens", Name: "LaGuardia Airport"},
	}))
	period := domain.Period{Year: 2019, Month: 1}
	require.NoError(t, st.SavePeriodStats(ctx, period,
		[]domain.ZoneStat{{Zone: 132, Pickups: 3, Dropoffs: 1}, {Zone: 138, Pickups: 1, Dropoffs: 3}},
		[]domain.RouteAverage{{PickupZone: 132, DropoffZone: 138, Trips: 3, MeanMinutes: 22}}))

	return New(cfg, st, nil, nil)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		target string
		status int
		body   string
	}{
		{target: "/health", status: http.StatusOK, body: `"status":"ok"`},
		{target: "/version", status: http.StatusOK, body: `"api_version":"v1"`},
		{target: "/metrics", status: http.StatusOK, body: "go_goroutines"},
		{target: "/api/v1/zones", status: http.StatusOK, body: `"count":2`},
		{target: "/api/v1/zones/132", status: http.StatusOK, body: "JFK Airport"},
		{target: "/api/v1/zones/7", status: http.StatusNotFound, body: apierrors.CodeNotFound},
		{target: "/api/v1/periods/2019/1/pickups", status: http.StatusOK, body: `"count":2`},
		{target: "/api/v1/periods/2019/1/travel-times?pickup=132", status: http.StatusOK, body: `"mean_minutes":22`},
		{target: "/api/v1/periods/2019/13/pickups", status: http.StatusBadRequest, body: apierrors.CodeValidationFailed},
		{target: "/api/v1/runs", status: http.StatusOK, body: `"count":0`},
		{target: "/nope", status: http.StatusNotFound, body: apierrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, a.Router, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRateLimitedRouter(t *testing.T) {
	a := newTestApp(t)
	a.Config.Server.RateLimit.Enabled = true
	a.Config.Server.RateLimit.RPS = 0.001
	a.Config.Server.RateLimit.Burst = 1
	a.setupRouter()

	assert.Equal(t, http.StatusOK, get(t, a.Router, "/health").Code)
	rec := get(t, a.Router, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body apierrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierrors.CodeRateLimited, body.ErrorCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/health", ln.Addr().String())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
