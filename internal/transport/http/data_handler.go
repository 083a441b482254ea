package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "taxipulse/internal/errors"
	"taxipulse/internal/infrastructure"
	api "taxipulse/pkg/contracts/api/v1"
	"taxipulse/pkg/contracts/domain"
)

// DataHandler serves zones, period aggregates and run history
type DataHandler struct {
	store        StatsStore
	cache        gcache.Cache
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates the handler. Period responses are kept in an LRU
// of cacheSize entries for ttl; a non-positive size disables caching.
func NewDataHandler(store StatsStore, cacheSize int, ttl time.Duration, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	h := &DataHandler{
		store:        store,
		logger:       infrastructure.WithComponent(logger, "data_handler"),
		errorHandler: errorHandler,
	}
	if cacheSize > 0 {
		b := gcache.New(cacheSize).LRU()
		if ttl > 0 {
			b = b.Expiration(ttl)
		}
		h.cache = b.Build()
	}
	return h
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/zones", h.ListZones)
	r.Get("/zones/{id}", h.GetZone)
	r.Route("/periods/{year}/{month}", func(r chi.Router) {
		r.Get("/pickups", h.GetPickups)
		r.Get("/travel-times", h.GetTravelTimes)
	})
	r.Get("/runs", h.ListRuns)

	return r
}

// ListZones handles GET /zones
func (h *DataHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.store.ListZones(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(zones))
}

// GetZone handles GET /zones/{id}
func (h *DataHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := validateRequest(api.ZoneRequest{ID: id}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	zone, err := h.store.GetZone(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, zone)
}

// GetPickups handles GET /periods/{year}/{month}/pickups
func (h *DataHandler) GetPickups(w http.ResponseWriter, r *http.Request) {
	req, err := parsePeriod(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	period := req.Period()

	key := fmt.Sprintf("pickups:%04d-%02d", period.Year, period.Month)
	resp, err := h.cached(r.Context(), key, func(ctx context.Context) (any, error) {
		stats, err := h.store.PickupsByZone(ctx, period)
		if err != nil {
			return nil, err
		}
		return api.NewListResponse(stats), nil
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetTravelTimes handles GET /periods/{year}/{month}/travel-times?pickup=N
func (h *DataHandler) GetTravelTimes(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	pickup, err := intQuery(r, "pickup", domain.ZoneJFKAirport)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req := api.TravelTimeRequest{PeriodRequest: period, Pickup: pickup}
	if err := validateRequest(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	key := fmt.Sprintf("travel:%04d-%02d:%d", req.Year, req.Month, req.Pickup)
	resp, err := h.cached(r.Context(), key, func(ctx context.Context) (any, error) {
		averages, err := h.store.TravelTimesFrom(ctx, req.Period(), req.Pickup)
		if err != nil {
			return nil, err
		}
		return api.NewListResponse(averages), nil
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// ListRuns handles GET /runs?limit=N
func (h *DataHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", api.DefaultRunsLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := validateRequest(api.RunsRequest{Limit: limit}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(runs))
}

// cached returns the value under key, loading and storing it on a miss
func (h *DataHandler) cached(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if h.cache == nil {
		return load(ctx)
	}
	if v, err := h.cache.Get(key); err == nil {
		h.logger.DebugContext(ctx, "cache hit", slog.String("key", key))
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.cache.Set(key, v); err != nil {
		h.logger.WarnContext(ctx, "cache store failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return v, nil
}
