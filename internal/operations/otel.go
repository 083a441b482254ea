package operations

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

const (
	TracerName = "taxipulse.operation"
)

// PipelineTracer provides OpenTelemetry instrumentation for pipeline runs
type PipelineTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewPipelineTracer creates a tracer. A nil tracer uses the global provider;
// nil metrics record nothing.
func NewPipelineTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *PipelineTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &PipelineTracer{tracer: tracer, metrics: metrics}
}

// TraceRun creates a span for an entire run
func (pt *PipelineTracer) TraceRun(ctx context.Context, state *RunState) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.RunID),
			attribute.Int("run.year", state.Period.Year),
			attribute.Int("run.month", state.Period.Month),
			attribute.Int("run.fleets", len(state.Fleets)),
		),
	)
}

// TraceStep creates a span for one step
func (pt *PipelineTracer) TraceStep(ctx context.Context, runID string, step Step) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", step.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
}

// RecordStepCompletion closes the span of a step and records its metrics
func (pt *PipelineTracer) RecordStepCompletion(ctx context.Context, span trace.Span, state *StepState, err error) {
	span.SetAttributes(
		attribute.Int("step.rows_in", state.RowsIn),
		attribute.Int("step.rows_out", state.RowsOut),
		attribute.Float64("step.duration_seconds", state.Duration().Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var opErr *OperationError
		if errors.As(err, &opErr) {
			span.SetAttributes(
				attribute.String("error.type", string(opErr.Type)),
				attribute.Bool("error.retryable", opErr.Retryable),
			)
		}
		return
	}
	span.SetStatus(codes.Ok, "step completed")
	pt.metrics.RecordStage(ctx, state.ID, state.RowsIn, state.RowsOut, state.Duration())
}

// RecordRunCompletion closes the run span and counts the run
func (pt *PipelineTracer) RecordRunCompletion(ctx context.Context, span trace.Span, summary domain.RunSummary, err error) {
	span.SetAttributes(
		attribute.String("run.status", string(summary.Status)),
		attribute.Int("run.rows_loaded", summary.RowsLoaded),
		attribute.Int("run.rows_retained", summary.RowsRetained),
		attribute.Bool("run.from_cache", summary.FromCache),
		attribute.Float64("run.duration_seconds", summary.Duration().Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "run completed")
	}
	pt.metrics.RecordRun(ctx, string(summary.Status))
}
