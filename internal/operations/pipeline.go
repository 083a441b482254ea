package operations

import (
	"context"
	"log/slog"
	"time"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// Pipeline runs registered steps strictly in sequence
type Pipeline struct {
	registry *Registry
	tracer   *PipelineTracer
	logger   *slog.Logger
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = infrastructure.WithComponent(logger, "pipeline")
	}
}

// WithTracer replaces the pipeline tracer
func WithTracer(tracer *PipelineTracer) PipelineOption {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// NewPipeline creates an empty pipeline
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		registry: NewRegistry(),
		tracer:   NewPipelineTracer(nil, nil),
		logger:   infrastructure.WithComponent(nil, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register appends steps to the pipeline
func (p *Pipeline) Register(steps ...Step) error {
	for _, step := range steps {
		if err := p.registry.Register(step); err != nil {
			return err
		}
	}
	return nil
}

// Registry exposes the registered steps
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Run executes every step and stops at the first failure. The returned
// summary is always filled, also on failure.
func (p *Pipeline) Run(ctx context.Context, state *RunState) (domain.RunSummary, error) {
	if state == nil {
		return domain.RunSummary{}, NewValidationError("", "run state is nil")
	}

	state.StartedAt = time.Now().UTC()
	ctx, span := p.tracer.TraceRun(ctx, state)
	defer span.End()

	logger := p.logger.With(
		slog.String("run_id", state.RunID),
		slog.Int("year", state.Period.Year),
		slog.Int("month", state.Period.Month),
	)
	logger.InfoContext(ctx, "Starting pipeline run",
		slog.Int("step_count", p.registry.Count()),
		slog.Any("steps", p.registry.ListIDs()))

	err := p.validate()
	if err == nil {
		for _, step := range p.registry.List() {
			if err = p.runStep(ctx, logger, state, step); err != nil {
				break
			}
		}
	}

	state.FinishedAt = time.Now().UTC()
	if err != nil {
		state.Status = domain.RunStatusFailed
		state.Error = err
		logger.ErrorContext(ctx, "Pipeline run failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(GetErrorType(err))))
	} else {
		state.Status = domain.RunStatusCompleted
		logger.InfoContext(ctx, "Pipeline run completed",
			slog.Int("rows_loaded", state.Table.Len()),
			slog.Int("rows_retained", len(state.Trips)),
			slog.Bool("from_cache", state.FromCache),
			slog.Duration("duration", state.FinishedAt.Sub(state.StartedAt)))
	}

	summary := state.Summary()
	p.tracer.RecordRunCompletion(ctx, span, summary, err)
	return summary, err
}

// validate requires a load step and the registered steps in run order
func (p *Pipeline) validate() error {
	if !p.registry.Has(StepIDLoad) {
		return NewValidationError("", "pipeline has no load step")
	}
	if err := p.registry.ValidateOrder(StepOrder); err != nil {
		return NewValidationError("", err.Error())
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, logger *slog.Logger, state *RunState, step Step) error {
	stepState := state.Step(step.ID(), step.Name())

	if err := ctx.Err(); err != nil {
		opErr := WrapError(err, step.ID(), "")
		stepState.Skip(opErr.Error())
		return opErr
	}

	ctx, span := p.tracer.TraceStep(ctx, state.RunID, step)
	defer span.End()

	reportsBefore := len(state.Reports)
	rowsIn := len(state.Trips)
	if reportsBefore == 0 {
		rowsIn = state.Table.Len()
	}
	stepState.Start(rowsIn)

	if err := step.Validate(state); err != nil {
		opErr := WrapError(err, step.ID(), "validation failed")
		stepState.Fail(opErr)
		p.tracer.RecordStepCompletion(ctx, span, stepState, opErr)
		return opErr
	}

	logger.DebugContext(ctx, "Executing step", slog.String("step", step.ID()))

	if err := step.Execute(ctx, state); err != nil {
		opErr := WrapError(err, step.ID(), "")
		stepState.Fail(opErr)
		p.tracer.RecordStepCompletion(ctx, span, stepState, opErr)
		return opErr
	}

	rowsOut := state.Table.Len()
	if len(state.Reports) > reportsBefore {
		rowsOut = state.Reports[len(state.Reports)-1].RowsOut
	}
	stepState.Complete(rowsOut)
	p.tracer.RecordStepCompletion(ctx, span, stepState, nil)
	return nil
}
