package exporter

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"taxipulse/internal/config"
	"taxipulse/pkg/contracts/domain"
)

// StageHeaders is the header of the stage removal report
var StageHeaders = []string{"stage", "rows_in", "rows_out", "rows_removed", "percent_removed"}

// RunHistoryHeaders is the header of the run history file
var RunHistoryHeaders = []string{
	"run_id", "year", "month", "fleets", "status",
	"rows_loaded", "rows_retained", "from_cache",
	"started_at", "finished_at", "duration_seconds", "error",
}

// WriteStageReport writes one row per stage with its removal percentage
func (e *TripExporter) WriteStageReport(filePath string, reports []domain.StageReport) error {
	records := make([][]string, len(reports))
	for i, r := range reports {
		records[i] = []string{
			r.Stage,
			strconv.Itoa(r.RowsIn),
			strconv.Itoa(r.RowsOut),
			strconv.Itoa(r.Removed()),
			strconv.FormatFloat(r.PercentRemoved(), 'f', 4, 64),
		}
	}
	if err := e.csvWriter.WriteSimpleCSV(filePath, StageHeaders, records); err != nil {
		return fmt.Errorf("failed to write stage report: %w", err)
	}
	return nil
}

// AppendRunHistory adds run to the history file, creating it with a header
// on first use
func (e *TripExporter) AppendRunHistory(filePath string, run domain.RunSummary) error {
	fleets := make([]string, len(run.Fleets))
	for i, f := range run.Fleets {
		fleets[i] = string(f)
	}
	record := []string{
		run.RunID,
		strconv.Itoa(run.Year),
		strconv.Itoa(run.Month),
		strings.Join(fleets, "|"),
		string(run.Status),
		strconv.Itoa(run.RowsLoaded),
		strconv.Itoa(run.RowsRetained),
		strconv.FormatBool(run.FromCache),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		strconv.FormatFloat(run.Duration().Seconds(), 'f', 3, 64),
		run.Error,
	}

	var err error
	if config.FileExists(e.csvWriter.resolvePath(filePath)) {
		err = e.csvWriter.AppendToCSV(filePath, [][]string{record})
	} else {
		err = e.csvWriter.WriteSimpleCSV(filePath, RunHistoryHeaders, [][]string{record})
	}
	if err != nil {
		return fmt.Errorf("failed to append run history: %w", err)
	}

	e.logger.Debug("Run appended to history",
		slog.String("file", filePath),
		slog.String("run_id", run.RunID))
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
