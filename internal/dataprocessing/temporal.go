package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// DefaultTimestampLayout is the layout of every trip timestamp in the archive
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// TemporalEnricher derives duration and calendar features from trip timestamps
type TemporalEnricher struct {
	logger *slog.Logger
	layout string
}

// NewTemporalEnricher creates an enricher. An empty layout uses
// DefaultTimestampLayout.
func NewTemporalEnricher(logger *slog.Logger, layout string) *TemporalEnricher {
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return &TemporalEnricher{
		logger: infrastructure.WithComponent(logger, "temporal_enricher"),
		layout: layout,
	}
}

// Enrich attaches temporal features to every trip with a positive duration.
// Trips with unparsable timestamps are dropped with the rest.
func (e *TemporalEnricher) Enrich(ctx context.Context, trips []domain.Trip) ([]domain.Trip, domain.StageReport) {
	report := domain.StageReport{Stage: StageEnrich, RowsIn: len(trips)}

	enriched := make([]domain.Trip, 0, len(trips))
	unparsable := 0
	for _, t := range trips {
		features, err := e.Features(t.PickupDatetime, t.DropoffDatetime)
		if err != nil {
			unparsable++
			continue
		}
		if features.TripDurationMinutes <= 0 {
			continue
		}
		t.Temporal = features
		enriched = append(enriched, t)
	}

	if unparsable > 0 {
		e.logger.WarnContext(ctx, "Dropped trips with unparsable timestamps",
			slog.Int("count", unparsable),
			slog.String("layout", e.layout))
	}

	report.RowsOut = len(enriched)
	logRemoval(ctx, e.logger, report, "because the trip duration was not positive.")

	return enriched, report
}

// Features parses both timestamps in UTC and derives every feature from the
// pickup time
func (e *TemporalEnricher) Features(pickup, dropoff string) (*domain.TemporalFeatures, error) {
	pu, err := time.ParseInLocation(e.layout, pickup, time.UTC)
	if err != nil {
		return nil, err
	}
	do, err := time.ParseInLocation(e.layout, dropoff, time.UTC)
	if err != nil {
		return nil, err
	}

	duration := do.Sub(pu)
	return &domain.TemporalFeatures{
		PickupTime:          pu,
		DropoffTime:         do,
		TripDuration:        duration,
		TripDurationMinutes: duration.Minutes(),
		PickupMonth:         int(pu.Month()),
		PickupDayOfMonth:    pu.Day(),
		PickupWeekday:       MondayWeekday(pu.Weekday()),
		PickupHour:          pu.Hour(),
		PickupMinute:        pu.Minute(),
	}, nil
}

// MondayWeekday maps a time.Weekday to 0=Monday ... 6=Sunday
func MondayWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
