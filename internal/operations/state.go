package operations

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"taxipulse/internal/loader"
	"taxipulse/pkg/contracts/domain"
)

// RunState carries the tables of one run from step to step. Each step
// replaces Table or Trips rather than editing them in place.
type RunState struct {
	mu sync.RWMutex

	RunID  string
	Period domain.Period
	Fleets []domain.Fleet

	Table      domain.RawTable
	Trips      []domain.Trip
	Reports    []domain.StageReport
	LoadReport loader.LoadReport
	FromCache  bool

	Status     domain.RunStatus
	Error      error
	StartedAt  time.Time
	FinishedAt time.Time

	steps map[string]*StepState
	order []string
}

// NewRunState creates the state of a new run with a fresh id
func NewRunState(period domain.Period, fleets []domain.Fleet) *RunState {
	if len(fleets) == 0 {
		fleets = domain.AllFleets
	}
	return &RunState{
		RunID:  uuid.New().String(),
		Period: period,
		Fleets: fleets,
		steps:  make(map[string]*StepState),
	}
}

// Step returns the state of a step, creating it on first use
func (s *RunState) Step(id, name string) *StepState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.steps[id]; ok {
		return st
	}
	st := NewStepState(id, name)
	s.steps[id] = st
	s.order = append(s.order, id)
	return st
}

// StepStates returns the step states in execution order
func (s *RunState) StepStates() []*StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*StepState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.steps[id])
	}
	return out
}

// AddReport appends a stage report
func (s *RunState) AddReport(reports ...domain.StageReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reports = append(s.Reports, reports...)
}

// Summary renders the run for storage and events
func (s *RunState) Summary() domain.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.RunSummary{
		RunID:        s.RunID,
		Year:         s.Period.Year,
		Month:        s.Period.Month,
		Fleets:       s.Fleets,
		Status:       s.Status,
		RowsLoaded:   s.Table.Len(),
		RowsRetained: len(s.Trips),
		Stages:       append([]domain.StageReport(nil), s.Reports...),
		FromCache:    s.FromCache,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
	}
	if s.Error != nil {
		summary.Error = s.Error.Error()
		summary.RowsRetained = 0
	}
	return summary
}
