package loader

import (
	"context"
	"log/slog"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// Extract identifies one (fleet, year, month) source file
type Extract struct {
	Fleet domain.Fleet `json:"fleet"`
	Year  int          `json:"year"`
	Month int          `json:"month"`
	URL   string       `json:"url"`
	Rows  int          `json:"rows"`
}

// FetchFailure records an extract that could not be loaded
type FetchFailure struct {
	Extract
	Error string `json:"error"`
}

// LoadReport summarises one Load call
type LoadReport struct {
	Attempted int            `json:"attempted"`
	Loaded    []Extract      `json:"loaded"`
	Failed    []FetchFailure `json:"failed"`
	Malformed int            `json:"malformed"`
	Rows      int            `json:"rows"`
}

// Loader fetches and unifies trip extracts
type Loader struct {
	fetcher  Fetcher
	template string
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the loader's logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = infrastructure.WithComponent(logger, "loader")
	}
}

// WithMetrics sets the instruments updated on fetch failures
func WithMetrics(metrics *infrastructure.PipelineMetrics) Option {
	return func(l *Loader) {
		l.metrics = metrics
	}
}

// New creates a loader fetching extracts named by template
func New(fetcher Fetcher, template string, opts ...Option) *Loader {
	l := &Loader{
		fetcher:  fetcher,
		template: template,
		logger:   infrastructure.WithComponent(nil, "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every (fleet, year, month) triple in order and concatenates
// the rows. Failed triples are skipped. Only a cancelled context ends the
// loop early; callers check ctx.Err() for that case.
func (l *Loader) Load(ctx context.Context, fleets []domain.Fleet, years, months []int) (domain.RawTable, LoadReport) {
	columns := make([]string, len(domain.CommonSchema))
	copy(columns, domain.CommonSchema)
	table := domain.RawTable{Columns: columns}

	var report LoadReport

	for _, fleet := range fleets {
		for _, year := range years {
			for _, month := range months {
				if ctx.Err() != nil {
					l.logger.WarnContext(ctx, "Load interrupted", slog.String("error", ctx.Err().Error()))
					report.Rows = len(table.Rows)
					return table, report
				}

				extract := Extract{Fleet: fleet, Year: year, Month: month, URL: ExtractURL(l.template, fleet, year, month)}
				report.Attempted++

				rows, malformed, err := l.loadExtract(ctx, extract)
				report.Malformed += malformed
				if err != nil {
					l.logger.WarnContext(ctx, "No data available for extract",
						slog.String("fleet", string(fleet)),
						slog.Int("year", year),
						slog.Int("month", month),
						slog.String("url", extract.URL),
						slog.String("error", err.Error()))
					l.metrics.RecordFetchFailure(ctx, string(fleet))
					report.Failed = append(report.Failed, FetchFailure{Extract: extract, Error: err.Error()})
					continue
				}

				extract.Rows = len(rows)
				report.Loaded = append(report.Loaded, extract)
				table.Rows = append(table.Rows, rows...)
			}
		}
	}

	report.Rows = len(table.Rows)
	l.logger.InfoContext(ctx, "Load complete",
		slog.Int("attempted", report.Attempted),
		slog.Int("loaded", len(report.Loaded)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("rows", report.Rows))

	return table, report
}

func (l *Loader) loadExtract(ctx context.Context, extract Extract) ([]domain.RawTrip, int, error) {
	schema, err := SchemaFor(extract.Fleet)
	if err != nil {
		return nil, 0, err
	}

	l.logger.InfoContext(ctx, "Downloading extract", slog.String("url", extract.URL))

	body, err := l.fetcher.Fetch(ctx, extract.URL)
	if err != nil {
		return nil, 0, err
	}
	defer body.Close()

	rows, stats, err := ParseExtract(body, schema)
	if err != nil {
		return nil, stats.Malformed, err
	}

	if len(stats.MissingColumns) > 0 {
		l.logger.WarnContext(ctx, "Extract lacks schema columns, cells left absent",
			slog.String("url", extract.URL),
			slog.Any("columns", stats.MissingColumns))
	}
	l.logger.DebugContext(ctx, "Extract parsed",
		slog.String("url", extract.URL),
		slog.Int("records", stats.Records),
		slog.Int("malformed", stats.Malformed),
		slog.Duration("elapsed", elapsed(body)))

	return rows, stats.Malformed, nil
}
