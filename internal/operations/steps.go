package operations

import (
	"context"
	"fmt"
	"log/slog"

	"taxipulse/internal/config"
	"taxipulse/internal/dataprocessing"
	"taxipulse/internal/infrastructure"
	"taxipulse/internal/loader"
	"taxipulse/pkg/contracts/domain"
)

// TripLoader fetches the raw extracts of a run
type TripLoader interface {
	Load(ctx context.Context, fleets []domain.Fleet, years, months []int) (domain.RawTable, loader.LoadReport)
}

// TripCache memoizes loaded tables per (fleet set, period)
type TripCache interface {
	Get(ctx context.Context, period domain.Period, fleets []domain.Fleet) (domain.RawTable, bool, error)
	Put(ctx context.Context, period domain.Period, table domain.RawTable, fleets []domain.Fleet) error
}

// LoadStep fills state.Table from the cache or, on a miss, from the loader
type LoadStep struct {
	BaseStage
	loader TripLoader
	cache  TripCache
	logger *slog.Logger
}

// NewLoadStep creates the load step. cache may be nil.
func NewLoadStep(l TripLoader, cache TripCache, logger *slog.Logger) *LoadStep {
	return &LoadStep{
		BaseStage: NewBaseStage(StepIDLoad, StepNameLoad),
		loader:    l,
		cache:     cache,
		logger:    infrastructure.WithComponent(logger, "load_step"),
	}
}

// Validate requires a loader and a known fleet list
func (s *LoadStep) Validate(state *RunState) error {
	if err := s.BaseStage.Validate(state); err != nil {
		return err
	}
	if s.loader == nil {
		return NewValidationError(s.ID(), "no loader configured")
	}
	for _, f := range state.Fleets {
		if !f.Valid() {
			return NewValidationError(s.ID(), fmt.Sprintf("unknown fleet %q", f))
		}
	}
	return nil
}

// Execute loads the table for the run period
func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	if s.cache != nil {
		table, ok, err := s.cache.Get(ctx, state.Period, state.Fleets)
		if err != nil {
			s.logger.WarnContext(ctx, "Cache lookup failed, loading from source",
				slog.Int("year", state.Period.Year),
				slog.Int("month", state.Period.Month),
				slog.String("error", err.Error()))
		}
		if ok {
			state.Table = table
			state.FromCache = true
			s.logger.InfoContext(ctx, "Loaded period from cache",
				slog.Int("year", state.Period.Year),
				slog.Int("month", state.Period.Month),
				slog.Int("rows", table.Len()))
			return s.checkLoaded(state)
		}
	}

	table, report := s.loader.Load(ctx, state.Fleets, []int{state.Period.Year}, []int{state.Period.Month})
	if err := ctx.Err(); err != nil {
		return WrapError(err, s.ID(), "load interrupted")
	}
	state.Table = table
	state.LoadReport = report

	if err := s.checkLoaded(state); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, state.Period, table, state.Fleets); err != nil {
			return NewExecutionError(s.ID(), fmt.Errorf("failed to write cache: %w", err), true)
		}
	}
	return nil
}

func (s *LoadStep) checkLoaded(state *RunState) error {
	if state.Table.Len() == 0 {
		return NewDataError(s.ID(),
			fmt.Sprintf("no trips loaded for %04d-%02d", state.Period.Year, state.Period.Month), nil)
	}
	return nil
}

// SanitizeStep converts state.Table into trips
type SanitizeStep struct {
	BaseStage
	sanitizer *dataprocessing.Sanitizer
}

// NewSanitizeStep creates the sanitize step
func NewSanitizeStep(logger *slog.Logger) *SanitizeStep {
	return &SanitizeStep{
		BaseStage: NewBaseStage(StepIDSanitize, StepNameSanitize),
		sanitizer: dataprocessing.NewSanitizer(logger),
	}
}

// Execute sanitizes the loaded table
func (s *SanitizeStep) Execute(ctx context.Context, state *RunState) error {
	trips, report := s.sanitizer.Sanitize(ctx, state.Table)
	state.Trips = trips
	state.AddReport(report)
	return nil
}

// RouteFilterStep drops trips touching reserved zones
type RouteFilterStep struct {
	BaseStage
	filter *dataprocessing.RouteFilter
}

// NewRouteFilterStep creates the route filter step. nil reserved uses the
// default zones.
func NewRouteFilterStep(logger *slog.Logger, reserved []int) *RouteFilterStep {
	return &RouteFilterStep{
		BaseStage: NewBaseStage(StepIDRouteFilter, StepNameRouteFilter),
		filter:    dataprocessing.NewRouteFilter(logger, reserved),
	}
}

// Execute filters the trips
func (s *RouteFilterStep) Execute(ctx context.Context, state *RunState) error {
	trips, report := s.filter.Filter(ctx, state.Trips)
	state.Trips = trips
	state.AddReport(report)
	return nil
}

// EnrichStep derives the temporal features
type EnrichStep struct {
	BaseStage
	enricher *dataprocessing.TemporalEnricher
}

// NewEnrichStep creates the enrich step
func NewEnrichStep(logger *slog.Logger, layout string) *EnrichStep {
	return &EnrichStep{
		BaseStage: NewBaseStage(StepIDEnrich, StepNameEnrich),
		enricher:  dataprocessing.NewTemporalEnricher(logger, layout),
	}
}

// Execute enriches the trips
func (s *EnrichStep) Execute(ctx context.Context, state *RunState) error {
	trips, report := s.enricher.Enrich(ctx, state.Trips)
	state.Trips = trips
	state.AddReport(report)
	return nil
}

// YearFilterStep keeps the trips of the run year
type YearFilterStep struct {
	BaseStage
	filter *dataprocessing.PeriodFilter
}

// NewYearFilterStep creates the year filter step
func NewYearFilterStep(logger *slog.Logger) *YearFilterStep {
	return &YearFilterStep{
		BaseStage: NewBaseStage(StepIDYearFilter, StepNameYearFilter),
		filter:    dataprocessing.NewPeriodFilter(logger),
	}
}

// Execute filters by year
func (s *YearFilterStep) Execute(ctx context.Context, state *RunState) error {
	trips, report := s.filter.FilterYear(ctx, state.Trips, state.Period.Year)
	state.Trips = trips
	state.AddReport(report)
	return nil
}

// MonthFilterStep keeps the trips of the run month
type MonthFilterStep struct {
	BaseStage
	filter *dataprocessing.PeriodFilter
}

// NewMonthFilterStep creates the month filter step
func NewMonthFilterStep(logger *slog.Logger) *MonthFilterStep {
	return &MonthFilterStep{
		BaseStage: NewBaseStage(StepIDMonthFilter, StepNameMonthFilter),
		filter:    dataprocessing.NewPeriodFilter(logger),
	}
}

// Validate rejects an out-of-range month
func (s *MonthFilterStep) Validate(state *RunState) error {
	if err := s.BaseStage.Validate(state); err != nil {
		return err
	}
	if state.Period.Month < 1 || state.Period.Month > 12 {
		return NewValidationError(s.ID(), fmt.Sprintf("month %d out of range", state.Period.Month))
	}
	return nil
}

// Execute filters by month
func (s *MonthFilterStep) Execute(ctx context.Context, state *RunState) error {
	trips, report := s.filter.FilterMonth(ctx, state.Trips, state.Period.Month)
	state.Trips = trips
	state.AddReport(report)
	return nil
}

// StageFactory builds the steps of a standard run in execution order
func StageFactory(cfg config.PipelineConfig, l TripLoader, cache TripCache, logger *slog.Logger) []Step {
	return []Step{
		NewLoadStep(l, cache, logger),
		NewSanitizeStep(logger),
		NewRouteFilterStep(logger, cfg.ReservedZones),
		NewEnrichStep(logger, cfg.TimestampLayout),
		NewYearFilterStep(logger),
		NewMonthFilterStep(logger),
	}
}
