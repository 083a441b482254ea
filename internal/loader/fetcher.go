package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"taxipulse/internal/config"
)

// Fetcher opens a remote resource for reading
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// StatusError is returned when the archive answers with a non-200 status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// HTTPFetcher fetches over HTTP with a request-rate limit. It makes a single
// attempt per call.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPFetcher creates a fetcher from the source configuration
func NewHTTPFetcher(cfg config.SourceConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		userAgent: cfg.UserAgent,
	}
}

// WithClient replaces the underlying HTTP client
func (f *HTTPFetcher) WithClient(client *http.Client) *HTTPFetcher {
	f.client = client
	return f
}

// Fetch waits for the limiter, then issues one GET. The caller closes the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return &timedBody{ReadCloser: resp.Body, started: started}, nil
}

// timedBody remembers when the request started so the loader can log the
// transfer time
type timedBody struct {
	io.ReadCloser
	started time.Time
}

func elapsed(rc io.ReadCloser) time.Duration {
	if tb, ok := rc.(*timedBody); ok {
		return time.Since(tb.started)
	}
	return 0
}
