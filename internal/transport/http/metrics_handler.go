package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler returns the Prometheus exposition handler. A nil handler,
// when metrics are disabled, falls back to the default registry.
func MetricsHandler(h http.Handler) http.Handler {
	if h != nil {
		return h
	}
	return promhttp.Handler()
}
