package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"taxipulse/pkg/contracts/domain"
)

// Stage names used in reports, logs and metrics
const (
	StageSanitize    = "sanitize"
	StageRouteFilter = "route_filter"
	StageEnrich      = "enrich"
	StageYearFilter  = "year_filter"
	StageMonthFilter = "month_filter"
)

// logRemoval reports the share of rows a stage could not use
func logRemoval(ctx context.Context, logger *slog.Logger, report domain.StageReport, reason string) {
	logger.InfoContext(ctx,
		fmt.Sprintf("About %.4f%% of the entire data could not be used %s", report.PercentRemoved(), reason),
		slog.String("stage", report.Stage),
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Float64("percent_removed", report.PercentRemoved()),
	)
}
