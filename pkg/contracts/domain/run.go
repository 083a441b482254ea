package domain

import (
	"time"
)

// RunStatus represents the outcome of a pipeline run
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StageReport records how many rows a pipeline stage consumed and kept
type StageReport struct {
	Stage   string `json:"stage"`
	RowsIn  int    `json:"rows_in"`
	RowsOut int    `json:"rows_out"`
}

// Removed returns the number of rows dropped by the stage
func (r StageReport) Removed() int {
	return r.RowsIn - r.RowsOut
}

// PercentRemoved returns the share of input rows dropped, in percent.
// An empty input reports zero.
func (r StageReport) PercentRemoved() float64 {
	if r.RowsIn == 0 {
		return 0
	}
	return 100 * (1 - float64(r.RowsOut)/float64(r.RowsIn))
}

// RunSummary describes one completed or failed pipeline run
type RunSummary struct {
	RunID        string        `json:"run_id" db:"run_id"`
	Year         int           `json:"year" db:"year"`
	Month        int           `json:"month" db:"month"`
	Fleets       []Fleet       `json:"fleets"`
	Status       RunStatus     `json:"status" db:"status"`
	RowsLoaded   int           `json:"rows_loaded" db:"rows_loaded"`
	RowsRetained int           `json:"rows_retained" db:"rows_retained"`
	Stages       []StageReport `json:"stages"`
	FromCache    bool          `json:"from_cache"`
	Error        string        `json:"error,omitempty" db:"error"`
	StartedAt    time.Time     `json:"started_at" db:"started_at"`
	FinishedAt   time.Time     `json:"finished_at" db:"finished_at"`
}

// Duration returns the wall time of the run
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
