package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/saucepet/product-research/internal/infrastructure"
	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Span names
const (
	SpanRun        = "trends.run"
	SpanFetchBatch = "trends.fetch_batch"
	SpanMerge      = "trends.merge"
	SpanWrite      = "trends.write"
)

// RunTracer provides OpenTelemetry instrumentation for a pipeline run
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.RunMetrics
}

// NewRunTracer creates a tracer over telemetry. A nil telemetry records nothing.
func NewRunTracer(telemetry *infrastructure.Telemetry) *RunTracer {
	if telemetry == nil {
		telemetry = infrastructure.NoopTelemetry()
	}
	return &RunTracer{
		tracer:  telemetry.Tracer,
		metrics: telemetry.Metrics,
	}
}

// TraceRun creates the root span for a run
func (rt *RunTracer) TraceRun(ctx context.Context, keywords, batches int) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("trends.keywords", keywords),
			attribute.Int("trends.batches", batches),
		),
	)
}

// TraceFetch creates a span for one batch fetch
func (rt *RunTracer) TraceFetch(ctx context.Context, batch domain.Batch) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, SpanFetchBatch,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.StringSlice("trends.keywords", batch),
			attribute.Int("trends.batch_size", len(batch)),
		),
	)
}

// TraceStep creates a span for a local step such as merge or write
func (rt *RunTracer) TraceStep(ctx context.Context, name string) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
}

// RecordAttempt counts one call to the upstream client
func (rt *RunTracer) RecordAttempt(ctx context.Context, attempt int) {
	rt.metrics.FetchAttempts.Add(ctx, 1)
	trace.SpanFromContext(ctx).AddEvent("attempt", trace.WithAttributes(attribute.Int("attempt", attempt)))
}

// RecordRetry counts a retry and the wait before it
func (rt *RunTracer) RecordRetry(ctx context.Context, attempt int, wait time.Duration, cause error) {
	rt.metrics.FetchRetries.Add(ctx, 1)
	rt.metrics.BackoffSeconds.Record(ctx, wait.Seconds())
	trace.SpanFromContext(ctx).AddEvent("retry", trace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.Float64("wait_seconds", wait.Seconds()),
		attribute.String("error", cause.Error()),
	))
}

// RecordFetchFailure marks the fetch span failed
func (rt *RunTracer) RecordFetchFailure(ctx context.Context, err error) {
	rt.metrics.FetchFailures.Add(ctx, 1)
	recordSpanError(trace.SpanFromContext(ctx), err)
}

// RecordBatch counts a completed batch
func (rt *RunTracer) RecordBatch(ctx context.Context, rows int) {
	rt.metrics.BatchesTotal.Add(ctx, 1)
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("trends.rows", rows))
	span.SetStatus(codes.Ok, "")
}

// RecordPause records the pacing delay between batches
func (rt *RunTracer) RecordPause(ctx context.Context, wait time.Duration) {
	rt.metrics.PauseSeconds.Record(ctx, wait.Seconds())
}

// RecordRunCompletion records the outcome of a run on its span and metrics
func (rt *RunTracer) RecordRunCompletion(ctx context.Context, span trace.Span, duration time.Duration, rows int, err error) {
	status := "success"
	if err != nil {
		status = "failed"
		recordSpanError(span, err)
	} else {
		rt.metrics.RowsWritten.Record(ctx, int64(rows))
		span.SetAttributes(attribute.Int("trends.rows", rows))
		span.SetStatus(codes.Ok, "")
	}

	attrs := []attribute.KeyValue{attribute.String("status", status)}
	if err != nil {
		attrs = append(attrs, attribute.String("error_type", string(GetErrorType(err))))
	}
	rt.metrics.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

func recordSpanError(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
