// Command processor runs the cleaning pipeline for one month, then analyses,
// renders and persists the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taxipulse/internal/config"
	"taxipulse/internal/files"
	"taxipulse/internal/infrastructure"
	"taxipulse/internal/loader"
	"taxipulse/internal/operations"
	"taxipulse/internal/publisher"
	"taxipulse/internal/store"
	"taxipulse/pkg/contracts"
	"taxipulse/pkg/contracts/domain"
)

type options struct {
	Period      domain.Period
	Fleets      []domain.Fleet
	FigureExt   string
	SkipFigures bool
	SkipStore   bool
}

func parseFlags(args []string, cfg *config.Config) (options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	year := fs.Int("year", 2019, "year of the extract to process")
	month := fs.Int("month", 1, "month of the extract to process (1-12)")
	fleets := fs.String("fleets", strings.Join(cfg.Source.Fleets, ","), "comma separated fleets: yellow,green,fhv,fhvhv")
	ext := fs.String("format", "pdf", "figure format: pdf, svg or png")
	skipFigures := fs.Bool("no-figures", false, "skip figure rendering")
	skipStore := fs.Bool("no-store", false, "do not persist aggregates and the run")
	root := fs.String("root", cfg.Paths.Root, "root directory of data/ and logs/ (defaults to the executable directory)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	period := domain.Period{Year: *year, Month: *month}
	if period.Month < 1 || period.Month > 12 {
		return options{}, fmt.Errorf("month must be between 1 and 12, got %d", period.Month)
	}
	parsed, err := domain.ParseFleets(strings.Split(*fleets, ","))
	if err != nil {
		return options{}, err
	}
	switch *ext {
	case "pdf", "svg", "png":
	default:
		return options{}, fmt.Errorf("unsupported figure format %q", *ext)
	}

	cfg.Paths.Root = *root
	return options{
		Period:      period,
		Fleets:      parsed,
		FigureExt:   *ext,
		SkipFigures: *skipFigures,
		SkipStore:   *skipStore,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:], cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Invalid arguments", slog.String("error", err.Error()))
		os.Exit(2)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()),
			slog.String("error_type", string(operations.GetErrorType(err))))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	paths, err := config.PathsFor(cfg.Paths)
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	paths.LogPathResolution(logger)
	logger.InfoContext(ctx, "Starting", slog.String("version", contracts.GetVersionInfo().String()))

	providers, err := infrastructure.InitializeOTel(cfg.OTel, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	stopMetrics := serveMetrics(cfg.OTel.MetricsAddr, providers.PrometheusHTTP, logger)
	defer stopMetrics()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	tripLoader := loader.New(loader.NewHTTPFetcher(cfg.Source), cfg.Source.TripURLTemplate,
		loader.WithLogger(logger), loader.WithMetrics(metrics))
	cache := files.NewCacheManager(paths, logger)

	pipeline := operations.NewPipeline(
		operations.WithLogger(logger),
		operations.WithTracer(operations.NewPipelineTracer(providers.Tracer, metrics)),
	)
	if err := pipeline.Register(operations.StageFactory(cfg.Pipeline, tripLoader, cache, logger)...); err != nil {
		return err
	}

	var st *store.Store
	if !opts.SkipStore {
		st, err = store.Open(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	pub, err := publisher.New(cfg.Events, logger)
	if err != nil {
		logger.Warn("Run events disabled", slog.String("error", err.Error()))
		pub = publisher.Noop{}
	}
	defer pub.Close()

	state := operations.NewRunState(opts.Period, opts.Fleets)
	summary, runErr := pipeline.Run(ctx, state)

	p := &processor{
		cfg:    cfg,
		opts:   opts,
		paths:  paths,
		store:  st,
		logger: logger,
	}
	var outputs runOutputs
	if runErr == nil {
		outputs, runErr = p.produce(ctx, state)
		if runErr != nil {
			summary.Status = domain.RunStatusFailed
			summary.Error = runErr.Error()
		}
	}

	p.recordRun(ctx, summary)
	if st != nil {
		if err := st.SaveRun(context.WithoutCancel(ctx), summary); err != nil {
			logger.Error("Failed to save run", slog.String("error", err.Error()))
		}
	}
	if err := pub.PublishRun(context.WithoutCancel(ctx), summary); err != nil {
		logger.Warn("Failed to publish run", slog.String("error", err.Error()))
	}

	if runErr != nil {
		return runErr
	}

	logger.InfoContext(ctx, "Processing finished",
		slog.String("run_id", summary.RunID),
		slog.Int("rows_retained", summary.RowsRetained),
		slog.String("cleaned", outputs.Cleaned),
		slog.String("stages", outputs.Stages),
		slog.String("workbook", outputs.Workbook),
		slog.String("report", outputs.Report),
		slog.Int("figures", len(outputs.Figures)),
		slog.Duration("duration", summary.Duration()))
	return nil
}

// serveMetrics exposes h on addr for the duration of the run. An empty
// address or handler does nothing.
func serveMetrics(addr string, h http.Handler, logger *slog.Logger) func() {
	if addr == "" || h == nil {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Info("Serving metrics", slog.String("address", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
