package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/saucepet/product-research/internal/config"
)

const (
	// InstrumentationName names the tracer and meter
	InstrumentationName = "github.com/saucepet/product-research"
)

// Telemetry holds the tracing and metrics pipeline for one run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *RunMetrics

	registry  *prom.Registry
	traceFile *os.File
	cfg       config.TelemetryConfig
	logger    *slog.Logger
}

// RunMetrics holds the instruments recorded by the fetch pipeline
type RunMetrics struct {
	BatchesTotal   metric.Int64Counter
	FetchAttempts  metric.Int64Counter
	FetchRetries   metric.Int64Counter
	FetchFailures  metric.Int64Counter
	BackoffSeconds metric.Float64Histogram
	PauseSeconds   metric.Float64Histogram
	RowsWritten    metric.Int64Gauge
	RunDuration    metric.Float64Histogram
}

// InitializeTelemetry sets up tracing (when a trace file is configured) and
// metrics backed by a private Prometheus registry. Metrics are flushed to
// cfg.MetricsFile on Shutdown.
func InitializeTelemetry(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(config.AppName),
		semconv.ServiceVersion(config.AppVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{cfg: cfg, logger: logger}

	if err := t.initializeTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.initializeMetrics(res); err != nil {
		_ = t.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "Telemetry initialized",
		slog.Bool("tracing_enabled", t.TracerProvider != nil),
		slog.String("trace_file", cfg.TraceFile),
		slog.String("metrics_file", cfg.MetricsFile))

	return t, nil
}

// NoopTelemetry returns telemetry that records nothing
func NoopTelemetry() *Telemetry {
	meter := metricnoop.NewMeterProvider().Meter(InstrumentationName)
	metrics, _ := CreateRunMetrics(meter)
	return &Telemetry{
		Tracer:  tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Meter:   meter,
		Metrics: metrics,
		logger:  slog.Default(),
	}
}

func (t *Telemetry) initializeTracing(res *resource.Resource) error {
	if t.cfg.TraceFile == "" {
		t.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentationName)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(t.cfg.TraceFile), 0o755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}
	f, err := os.OpenFile(t.cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	t.traceFile = f

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	t.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	t.Tracer = t.TracerProvider.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.registry = prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(t.registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion))

	t.Metrics, err = CreateRunMetrics(t.Meter)
	return err
}

// CreateRunMetrics creates the pipeline instruments on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	batches, err := meter.Int64Counter(
		"trends_batches_total",
		metric.WithDescription("Total number of keyword batches fetched successfully"),
	)
	if err != nil {
		return nil, err
	}

	attempts, err := meter.Int64Counter(
		"trends_fetch_attempts_total",
		metric.WithDescription("Total number of upstream fetch attempts"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"trends_fetch_retries_total",
		metric.WithDescription("Total number of fetch retries after a failed attempt"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"trends_fetch_failures_total",
		metric.WithDescription("Total number of batches that exhausted their retries"),
	)
	if err != nil {
		return nil, err
	}

	backoff, err := meter.Float64Histogram(
		"trends_backoff_seconds",
		metric.WithDescription("Backoff wait before a retry, jitter included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pause, err := meter.Float64Histogram(
		"trends_pause_seconds",
		metric.WithDescription("Pause between batch fetches, jitter included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Gauge(
		"trends_rows_written",
		metric.WithDescription("Rows in the last written output file"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"trends_run_duration_seconds",
		metric.WithDescription("Wall time of a complete run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		BatchesTotal:   batches,
		FetchAttempts:  attempts,
		FetchRetries:   retries,
		FetchFailures:  failures,
		BackoffSeconds: backoff,
		PauseSeconds:   pause,
		RowsWritten:    rows,
		RunDuration:    duration,
	}, nil
}

// Registry exposes the Prometheus registry backing the metrics
func (t *Telemetry) Registry() *prom.Registry {
	return t.registry
}

// Shutdown flushes spans, writes the metrics textfile if configured and
// releases the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if err := t.closeTraceFile(); err != nil {
		errs = append(errs, fmt.Errorf("trace file close: %w", err))
	}

	if t.registry != nil && t.cfg.MetricsFile != "" {
		if err := t.writeMetricsFile(); err != nil {
			errs = append(errs, err)
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// writeMetricsFile dumps the registry in the text exposition format read by
// the node_exporter textfile collector.
func (t *Telemetry) writeMetricsFile() error {
	if err := os.MkdirAll(filepath.Dir(t.cfg.MetricsFile), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(t.cfg.MetricsFile, t.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	t.logger.Debug("Metrics written", slog.String("path", t.cfg.MetricsFile))
	return nil
}

func (t *Telemetry) closeTraceFile() error {
	if t.traceFile == nil {
		return nil
	}
	err := t.traceFile.Close()
	t.traceFile = nil
	return err
}

// RecordError records an error on the span in ctx
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the span in ctx
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attrs...)
}
