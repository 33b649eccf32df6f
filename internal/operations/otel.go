package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"aqicli/internal/infrastructure"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "aqicli.operation"

// StepTracer wraps runs and steps in spans and records step metrics
type StepTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewStepTracer creates a tracer from the run's telemetry. A nil telemetry
// uses the global tracer and records no metrics.
func NewStepTracer(tel *infrastructure.Telemetry) *StepTracer {
	st := &StepTracer{tracer: otel.Tracer(TracerName)}
	if tel != nil {
		if tel.Tracer != nil {
			st.tracer = tel.Tracer
		}
		st.metrics = tel.Metrics
	}
	return st
}

// TraceOperation starts the span of a whole run
func (st *StepTracer) TraceOperation(ctx context.Context, operationID string, steps int) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.Int("operation.steps", steps),
		),
	)
}

// TraceStep starts the span of one step
func (st *StepTracer) TraceStep(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStep closes out a step span and records its duration
func (st *StepTracer) RecordStep(ctx context.Context, span trace.Span, stepID string, d time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", d.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "step completed")
	}
	st.metrics.RecordStep(ctx, stepID, d, err == nil)
}

// Metrics returns the run's pipeline metrics, which may be nil
func (st *StepTracer) Metrics() *infrastructure.PipelineMetrics {
	return st.metrics
}
