package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"taxipulse/internal/config"
	apierrors "taxipulse/internal/errors"
	"taxipulse/internal/infrastructure"
	customMiddleware "taxipulse/internal/middleware"
	"taxipulse/internal/store"
	handlers "taxipulse/internal/transport/http"
	"taxipulse/pkg/contracts"
)

// AppName is reported in startup logs
const AppName = "taxipulse-web"

// Application is the query API container
type Application struct {
	Config        *config.Config
	Store         *store.Store
	OTelProviders *infrastructure.OTelProviders
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
}

// New wires the router and server. providers may be nil when
// observability is disabled.
func New(cfg *config.Config, st *store.Store, providers *infrastructure.OTelProviders, logger *slog.Logger) *Application {
	a := &Application{
		Config:        cfg,
		Store:         st,
		OTelProviders: providers,
		Logger:        infrastructure.WithComponent(logger, "app"),
	}
	a.setupRouter()
	a.createServer()
	return a
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → RateLimit
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if a.OTelProviders != nil {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.StripSlashes)

	if rl := a.Config.Server.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, store.ErrNotFound)
	health := handlers.NewHealthHandler(a.Store, a.Store.Dialect().Name, a.Logger)
	data := handlers.NewDataHandler(a.Store, a.Config.Server.CacheSize, a.Config.Server.CacheTTL, a.Logger, errorHandler)

	r.Get("/health", health.HealthCheck)
	r.Get("/version", health.Version)

	var promHandler http.Handler
	if a.OTelProviders != nil {
		promHandler = a.OTelProviders.PrometheusHTTP
	}
	r.Handle("/metrics", handlers.MetricsHandler(promHandler))

	r.Mount("/api/"+contracts.APIVersion, data.Routes())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleError(w, r, apierrors.NotFound("route "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiErr := apierrors.New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		_ = render.Render(w, r, apiErr)
	})

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run listens on the configured port and serves until ctx is done
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or the server fails, then shuts
// down gracefully
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Starting application",
			slog.String("name", AppName),
			slog.String("version", contracts.GetVersionInfo().String()),
			slog.String("address", ln.Addr().String()),
			slog.String("storage", a.Store.Dialect().Name))

		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(context.WithoutCancel(ctx), "Shutting down application")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.Logger.Info("Application shutdown complete")
	return nil
}
