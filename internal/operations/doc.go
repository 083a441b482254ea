// Package operations orchestrates one pipeline run over a (year, month)
// period.
//
// Core components:
//
// Step: a single unit of work. Steps read and replace the tables held by the
// RunState; they never mutate a table in place.
//
// Registry: holds the steps in registration order, which is the execution
// order.
//
// Pipeline: runs every registered step strictly in sequence inside an
// OpenTelemetry span, records the pipeline metrics and stops at the first
// failing step. Failures are returned as *OperationError.
//
// Example usage:
//
//	state := operations.NewRunState(domain.Period{Year: 2019, Month: 1}, fleets)
//	pipeline := operations.NewPipeline(
//		operations.WithLogger(logger),
//		operations.WithTelemetry(providers.Tracer, metrics),
//	)
//	for _, step := range operations.StageFactory(cfg.Pipeline, ldr, cache, logger) {
//		pipeline.Register(step)
//	}
//	summary, err := pipeline.Run(ctx, state)
package operations
