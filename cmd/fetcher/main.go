// Command fetcher downloads the zone lookup into the store and warms the
// extract cache for a range of months.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"taxipulse/internal/config"
	"taxipulse/internal/files"
	"taxipulse/internal/infrastructure"
	"taxipulse/internal/loader"
	"taxipulse/internal/operations"
	"taxipulse/internal/store"
	"taxipulse/pkg/contracts"
	"taxipulse/pkg/contracts/domain"
)

const monthLayout = "2006-01"

type options struct {
	From      domain.Period
	To        domain.Period
	Fleets    []domain.Fleet
	Workers   int
	Force     bool
	SkipZones bool
}

func parseFlags(args []string, cfg *config.Config) (options, error) {
	fs := flag.NewFlagSet("fetcher", flag.ContinueOnError)
	from := fs.String("from", "2019-01", "first month to fetch (YYYY-MM)")
	to := fs.String("to", "", "last month to fetch (YYYY-MM), defaults to -from")
	fleets := fs.String("fleets", strings.Join(cfg.Source.Fleets, ","), "comma separated fleets: yellow,green,fhv,fhvhv")
	workers := fs.Int("workers", 2, "months fetched concurrently")
	force := fs.Bool("force", false, "refetch months that are already cached")
	skipZones := fs.Bool("no-zones", false, "do not refresh the zone lookup")
	root := fs.String("root", cfg.Paths.Root, "root directory of data/ and logs/ (defaults to the executable directory)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	start, err := parseMonth(*from)
	if err != nil {
		return options{}, fmt.Errorf("invalid -from: %w", err)
	}
	end := start
	if *to != "" {
		if end, err = parseMonth(*to); err != nil {
			return options{}, fmt.Errorf("invalid -to: %w", err)
		}
	}
	if end.Start().Before(start.Start()) {
		return options{}, fmt.Errorf("-to %s is before -from %s", *to, *from)
	}
	if *workers < 1 {
		return options{}, fmt.Errorf("-workers must be positive, got %d", *workers)
	}
	parsed, err := domain.ParseFleets(strings.Split(*fleets, ","))
	if err != nil {
		return options{}, err
	}

	cfg.Paths.Root = *root
	return options{
		From:      start,
		To:        end,
		Fleets:    parsed,
		Workers:   *workers,
		Force:     *force,
		SkipZones: *skipZones,
	}, nil
}

func parseMonth(s string) (domain.Period, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return domain.Period{}, err
	}
	return domain.Period{Year: t.Year(), Month: int(t.Month())}, nil
}

// periods lists every month from from to to, both included
func periods(from, to domain.Period) []domain.Period {
	var out []domain.Period
	for t := from.Start(); !t.After(to.Start()); t = t.AddDate(0, 1, 0) {
		out = append(out, domain.Period{Year: t.Year(), Month: int(t.Month())})
	}
	return out
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
		logger.Error("Fetch failed", slog.String("error", err.Error()))
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
	logger.InfoContext(ctx, "Starting", slog.String("version", contracts.GetVersionInfo().String()))

	httpFetcher := loader.NewHTTPFetcher(cfg.Source)

	if !opts.SkipZones {
		st, err := store.Open(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		if err := refreshZones(ctx, loader.NewZoneLoader(httpFetcher, cfg.Source.ZoneLookupURL, logger), st); err != nil {
			return err
		}
	}

	cache := files.NewCacheManager(paths, logger)
	f := &fetcher{
		loader:  loader.New(httpFetcher, cfg.Source.TripURLTemplate, loader.WithLogger(logger)),
		cache:   cache,
		logger:  infrastructure.WithComponent(logger, "fetcher"),
		workers: opts.Workers,
		force:   opts.Force,
	}
	results, err := f.fetchAll(ctx, periods(opts.From, opts.To), opts.Fleets)
	if err != nil {
		return err
	}

	var fetched, cached, empty int
	for _, r := range results {
		switch {
		case r.Cached:
			cached++
		case r.Rows == 0:
			empty++
		default:
			fetched++
		}
	}
	logger.InfoContext(ctx, "Fetch finished",
		slog.Int("months", len(results)),
		slog.Int("fetched", fetched),
		slog.Int("already_cached", cached),
		slog.Int("empty", empty))

	cachedPeriods, err := cache.Periods()
	if err != nil {
		logger.WarnContext(ctx, "Could not list cache", slog.String("error", err.Error()))
		return nil
	}
	for _, p := range cachedPeriods {
		logger.DebugContext(ctx, "Cached extract",
			slog.Int("year", p.Year),
			slog.Int("month", p.Month),
			slog.String("file", p.File.Name),
			slog.Int64("size", p.File.Size))
	}
	logger.InfoContext(ctx, "Cache contents", slog.Int("months", len(cachedPeriods)))
	return nil
}

type zoneSource interface {
	Load(ctx context.Context) ([]domain.Zone, error)
}

type zoneSink interface {
	SaveZones(ctx context.Context, zones []domain.Zone) error
}

func refreshZones(ctx context.Context, src zoneSource, dst zoneSink) error {
	zones, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load zone lookup: %w", err)
	}
	if len(zones) == 0 {
		return errors.New("zone lookup is empty")
	}
	return dst.SaveZones(ctx, zones)
}

// monthResult is the outcome of one month
type monthResult struct {
	Period domain.Period
	Rows   int
	Cached bool
}

// monthCache is the cache as used by the fetcher
type monthCache interface {
	operations.TripCache
	Invalidate(period domain.Period) error
}

type fetcher struct {
	loader  operations.TripLoader
	cache   monthCache
	logger  *slog.Logger
	workers int
	force   bool
}

// fetchAll caches every period, at most f.workers at a time. Months without
// any data are reported with zero rows and not cached.
func (f *fetcher) fetchAll(ctx context.Context, list []domain.Period, fleets []domain.Fleet) ([]monthResult, error) {
	results := make([]monthResult, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, period := range list {
		g.Go(func() error {
			r, err := f.fetchOne(gctx, period, fleets)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *fetcher) fetchOne(ctx context.Context, period domain.Period, fleets []domain.Fleet) (monthResult, error) {
	res := monthResult{Period: period}

	if f.force {
		if err := f.cache.Invalidate(period); err != nil {
			return res, err
		}
	} else {
		table, hit, err := f.cache.Get(ctx, period, fleets)
		if err != nil {
			return res, err
		}
		if hit {
			res.Rows, res.Cached = table.Len(), true
			return res, nil
		}
	}

	table, report := f.loader.Load(ctx, fleets, []int{period.Year}, []int{period.Month})
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if table.Len() == 0 {
		f.logger.WarnContext(ctx, "No trips available",
			slog.Int("year", period.Year),
			slog.Int("month", period.Month),
			slog.Int("failed_extracts", len(report.Failed)))
		return res, nil
	}

	if err := f.cache.Put(ctx, period, table, fleets); err != nil {
		return res, err
	}
	res.Rows = table.Len()
	return res, nil
}
