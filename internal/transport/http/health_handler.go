package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts"
	api "taxipulse/pkg/contracts/api/v1"
)

// HealthHandler reports service and storage health
type HealthHandler struct {
	db      Pinger
	dialect string
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, dialect string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		dialect: dialect,
		logger:  infrastructure.WithComponent(logger, "health_handler"),
	}
}

// HealthCheck handles GET /health. An unreachable database answers 503.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  "ok",
		Service: "taxipulse",
		Version: contracts.Version,
		Storage: h.dialect,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "Storage unreachable", slog.String("error", err.Error()))
		resp.Status = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, resp)
}

// Version handles GET /version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
