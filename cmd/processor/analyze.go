package main

import (
	"errors"
	"fmt"

	"taxipulse/internal/analysis"
	"taxipulse/internal/config"
	"taxipulse/pkg/contracts/domain"
)

// minModelRows is the smallest route subset the regressions are fitted on
const minModelRows = 20

// modelResult is one fitted regression and its test evaluation
type modelResult struct {
	Name  string
	Truth []float64
	Eval  analysis.Evaluation
}

// analysisResult gathers everything derived from the cleaned trips of a run
type analysisResult struct {
	ZoneStats   []domain.ZoneStat
	TravelTimes []domain.RouteAverage
	Rides       []analysis.DailyRides
	Profile     analysis.WeekdayProfile

	Route       []domain.Trip
	RawFeatures map[string][]float64
	Features    *analysis.Gaussianized
	Correlation *analysis.Correlation
	Models      []modelResult

	// Skipped notes analyses that had too little data
	Skipped []string
}

func analyze(trips []domain.Trip, period domain.Period, cfg config.PipelineConfig) (analysisResult, error) {
	res := analysisResult{
		ZoneStats:   analysis.ZoneStats(trips),
		TravelTimes: analysis.AverageTravelTimeFrom(trips, cfg.RoutePickup),
		Rides:       analysis.RidesOverTime(trips, period),
	}

	route := analysis.RouteSubset(trips, cfg.RoutePickup, cfg.RouteDropoff, cfg.RouteMinMinutes, cfg.RouteMaxMinutes)
	res.Route = analysis.RemoveOutliersIQR(route)
	res.Profile = analysis.HourlyProfileByWeekday(res.Route)
	res.RawFeatures = analysis.FeatureVectors(res.Route)

	if len(res.Route) < minModelRows {
		res.Skipped = append(res.Skipped, fmt.Sprintf("route %d-%d has %d trips, models need %d",
			cfg.RoutePickup, cfg.RouteDropoff, len(res.Route), minModelRows))
		return res, nil
	}

	g, err := analysis.GaussianizedFeatures(res.Route, cfg.BoxCoxLambda)
	if err != nil {
		return res, fmt.Errorf("failed to gaussianize route features: %w", err)
	}
	res.Features = &g

	corr, err := analysis.CorrelationMatrix(g.Frame)
	if err != nil {
		return res, fmt.Errorf("failed to compute correlation: %w", err)
	}
	res.Correlation = &corr

	data, _, err := analysis.DatasetFromFrame(g.Frame, analysis.FeatureDuration)
	if err != nil {
		return res, err
	}
	train, test, err := analysis.SplitTrainTest(data, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return res, fmt.Errorf("failed to split dataset: %w", err)
	}

	ols, err := analysis.FitOLS(train)
	if err != nil {
		return res, fmt.Errorf("failed to fit linear model: %w", err)
	}
	res.Models = append(res.Models, modelResult{Name: "linear", Truth: test.Y, Eval: analysis.Evaluate(ols, test)})

	poly, err := analysis.FitPolynomial(train, cfg.PolynomialDeg)
	switch {
	case err == nil:
		res.Models = append(res.Models, modelResult{
			Name:  fmt.Sprintf("polynomial-%d", cfg.PolynomialDeg),
			Truth: test.Y,
			Eval:  analysis.Evaluate(poly, test),
		})
	case errors.Is(err, analysis.ErrTooFewRows):
		res.Skipped = append(res.Skipped, fmt.Sprintf("polynomial degree %d: %v", cfg.PolynomialDeg, err))
	default:
		return res, fmt.Errorf("failed to fit polynomial model: %w", err)
	}

	return res, nil
}
