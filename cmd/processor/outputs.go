package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taxipulse/internal/analysis"
	"taxipulse/internal/config"
	"taxipulse/internal/exporter"
	"taxipulse/internal/operations"
	"taxipulse/internal/plotting"
	"taxipulse/internal/store"
	"taxipulse/internal/validation"
	"taxipulse/pkg/contracts/domain"
)

// processor turns a finished pipeline run into files and stored aggregates
type processor struct {
	cfg    *config.Config
	opts   options
	paths  *config.Paths
	store  *store.Store
	logger *slog.Logger
}

// runOutputs lists the files written for one run
type runOutputs struct {
	Cleaned  string
	Stages   string
	Workbook string
	Report   string
	Figures  []string
}

func (p *processor) produce(ctx context.Context, state *operations.RunState) (runOutputs, error) {
	period := state.Period
	exp := exporter.NewTripExporter(p.paths, p.logger)
	var out runOutputs

	out.Cleaned = p.paths.CleanedFile(period.Year, period.Month)
	rows, err := exp.WriteCleaned(out.Cleaned, state.Trips)
	if err != nil {
		return out, fmt.Errorf("failed to write cleaned trips: %w", err)
	}
	p.logger.InfoContext(ctx, "Cleaned trips written", slog.String("file", out.Cleaned), slog.Int("rows", rows))

	out.Stages = p.paths.StagesFile(period.Year, period.Month)
	if err := exp.WriteStageReport(out.Stages, state.Reports); err != nil {
		return out, err
	}

	res, err := analyze(state.Trips, period, p.cfg.Pipeline)
	if err != nil {
		return out, err
	}
	for _, note := range res.Skipped {
		p.logger.WarnContext(ctx, "Analysis skipped", slog.String("reason", note))
	}

	if !p.opts.SkipFigures {
		out.Figures = p.renderFigures(ctx, res, period)
	}

	zones := p.zoneNames(ctx)
	out.Workbook = p.paths.WorkbookFile(period.Year, period.Month)
	err = exp.WriteWorkbook(out.Workbook, exporter.WorkbookData{
		Period:      period,
		Stages:      state.Reports,
		ZoneStats:   res.ZoneStats,
		TravelTimes: res.TravelTimes,
		Rides:       res.Rides,
		Zones:       zones,
	})
	if err != nil {
		return out, fmt.Errorf("failed to write workbook: %w", err)
	}

	if p.store != nil {
		if err := p.store.SavePeriodStats(ctx, period, res.ZoneStats, res.TravelTimes); err != nil {
			return out, err
		}
	}

	summary := state.Summary()
	report := plotting.RunReport{
		Summary:    summary,
		RouteTrips: len(res.Route),
		Figures:    out.Figures,
	}
	if res.Features != nil {
		report.BoxCoxLambda = res.Features.BoxCoxLambda
		report.YeoJohnsonLambda = res.Features.YeoJohnsonLambda
	}
	for _, m := range res.Models {
		report.Models = append(report.Models, plotting.ModelResult{
			Name:    m.Name,
			MSE:     m.Eval.MSE,
			R2:      m.Eval.R2,
			Weights: len(m.Eval.Weights),
		})
	}
	out.Report = p.paths.RunReportFile(period.Year, period.Month)
	if err := plotting.WriteRunReport(out.Report, report); err != nil {
		return out, fmt.Errorf("failed to write run report: %w", err)
	}

	if err := p.verify(out); err != nil {
		return out, fmt.Errorf("run outputs are invalid: %w", err)
	}
	return out, nil
}

// Output kinds checked by verify
const (
	outputCleaned  = "cleaned"
	outputStages   = "stages"
	outputWorkbook = "workbook"
	outputReport   = "report"
	outputFigures  = "figures"
)

// verify checks every output and reports all failures together
func (p *processor) verify(out runOutputs) error {
	v := validation.NewOutputValidator(p.logger)
	checks := []struct {
		output string
		err    error
	}{
		{outputCleaned, v.ValidateCSV(out.Cleaned, exporter.CleanedHeaders())},
		{outputStages, v.ValidateCSV(out.Stages, exporter.StageHeaders)},
		{outputWorkbook, v.ValidateWorkbook(out.Workbook, exporter.WorkbookSheets)},
		{outputReport, v.ValidatePDF(out.Report)},
		{outputFigures, v.ValidateFiles(out.Figures)},
	}

	var errs operations.ErrorList
	for _, c := range checks {
		if c.err != nil {
			errs.Add(operations.NewDataError(c.output, "invalid output", c.err))
		}
	}
	return errs.ErrorOrNil()
}

// recordRun appends summary to the run history file. Failures are logged
// only.
func (p *processor) recordRun(ctx context.Context, summary domain.RunSummary) {
	exp := exporter.NewTripExporter(p.paths, p.logger)
	if err := exp.AppendRunHistory(p.paths.RunHistoryFile(), summary); err != nil {
		p.logger.WarnContext(ctx, "Failed to record run history", slog.String("error", err.Error()))
	}
}

// renderFigures draws every figure it has data for. Failures are logged and
// the figure left out.
func (p *processor) renderFigures(ctx context.Context, res analysisResult, period domain.Period) []string {
	r := plotting.NewRenderer(p.paths, p.opts.FigureExt, p.logger)
	var figures []string

	keep := func(name string, err error, paths ...string) {
		switch {
		case err == nil:
		case errors.Is(err, plotting.ErrNoData):
			p.logger.DebugContext(ctx, "Figure has no data", slog.String("figure", name))
		default:
			p.logger.WarnContext(ctx, "Failed to render figure", slog.String("figure", name), slog.String("error", err.Error()))
		}
		for _, path := range paths {
			if path != "" {
				figures = append(figures, path)
			}
		}
	}

	path, err := r.PickupsPerZone(res.ZoneStats, period)
	keep("pickups", err, path)
	path, err = r.TravelTimeFrom(res.TravelTimes)
	keep("travel-times", err, path)
	paths, err := r.RidesOverTime(res.Rides, period)
	keep("rides", err, paths...)

	route := fmt.Sprintf("%d to %d", p.cfg.Pipeline.RoutePickup, p.cfg.Pipeline.RouteDropoff)
	path, err = r.WeekdayProfile(res.Profile, "Mean travel time "+route)
	keep("weekday-profile", err, path)
	paths, err = r.FeatureHistograms(res.RawFeatures, analysis.FeatureColumns, "raw")
	keep("raw-histograms", err, paths...)

	if res.Features != nil {
		cols := make(map[string][]float64, len(analysis.FeatureColumns))
		for _, name := range res.Features.Frame.Names() {
			cols[name] = res.Features.Frame.Col(name).Float()
		}
		paths, err = r.FeatureHistograms(cols, analysis.FeatureColumns, "gaussianized")
		keep("gaussianized-histograms", err, paths...)
	}
	if res.Correlation != nil {
		path, err = r.CorrelationHeatmap(*res.Correlation, "Feature correlation "+route)
		keep("correlation", err, path)
	}
	for _, m := range res.Models {
		paths, err = r.RegressionDiagnostics(m.Name, m.Truth, m.Eval, analysis.FeatureDuration)
		keep(m.Name, err, paths...)
	}

	return figures
}

// zoneNames loads the zone lookup from the store, if there is one
func (p *processor) zoneNames(ctx context.Context) map[int]domain.Zone {
	if p.store == nil {
		return nil
	}
	zones, err := p.store.ListZones(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Zone names unavailable", slog.String("error", err.Error()))
		return nil
	}
	byID := make(map[int]domain.Zone, len(zones))
	for _, z := range zones {
		byID[z.LocationID] = z
	}
	return byID
}
