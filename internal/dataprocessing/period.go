package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// PeriodFilter keeps the trips of a target year and month by matching the
// timestamp strings
type PeriodFilter struct {
	logger *slog.Logger
}

// NewPeriodFilter creates a period filter
func NewPeriodFilter(logger *slog.Logger) *PeriodFilter {
	return &PeriodFilter{logger: infrastructure.WithComponent(logger, "period_filter")}
}

// FilterYear keeps trips whose pickup OR dropoff string contains the 4-digit
// year
func (f *PeriodFilter) FilterYear(ctx context.Context, trips []domain.Trip, year int) ([]domain.Trip, domain.StageReport) {
	token := fmt.Sprintf("%04d", year)
	report := domain.StageReport{Stage: StageYearFilter, RowsIn: len(trips)}

	kept := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if strings.Contains(t.PickupDatetime, token) || strings.Contains(t.DropoffDatetime, token) {
			kept = append(kept, t)
		}
	}

	report.RowsOut = len(kept)
	logRemoval(ctx, f.logger, report, "because they contained the wrong year.")

	return kept, report
}

// FilterMonth keeps trips whose pickup AND dropoff strings both contain
// "-MM-"
func (f *PeriodFilter) FilterMonth(ctx context.Context, trips []domain.Trip, month int) ([]domain.Trip, domain.StageReport) {
	token := fmt.Sprintf("-%02d-", month)
	report := domain.StageReport{Stage: StageMonthFilter, RowsIn: len(trips)}

	kept := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if strings.Contains(t.PickupDatetime, token) && strings.Contains(t.DropoffDatetime, token) {
			kept = append(kept, t)
		}
	}

	report.RowsOut = len(kept)
	logRemoval(ctx, f.logger, report, "because they contained the wrong month.")

	return kept, report
}

// Filter applies the year filter then the month filter
func (f *PeriodFilter) Filter(ctx context.Context, trips []domain.Trip, period domain.Period) ([]domain.Trip, []domain.StageReport) {
	byYear, yearReport := f.FilterYear(ctx, trips, period.Year)
	byMonth, monthReport := f.FilterMonth(ctx, byYear, period.Month)
	return byMonth, []domain.StageReport{yearReport, monthReport}
}
