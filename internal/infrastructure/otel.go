package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"aqicli/internal/config"
)

// MeterName is the instrumentation scope for tracer and meter
const MeterName = "aqicli"

// Station outcomes recorded by PipelineMetrics
const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeMissingFile = "missing_file"
)

// Telemetry holds the tracing and metrics providers of one run. Metrics are
// gathered on a private Prometheus registry and flushed to a textfile.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Registry       *prometheus.Registry
	Metrics        *PipelineMetrics

	metricsFile string
	traceOut    io.WriteCloser
	logger      *slog.Logger
}

// PipelineMetrics are the run's business instruments
type PipelineMetrics struct {
	StationsProcessed  metric.Int64Counter
	ReadingsAccepted   metric.Int64Counter
	ReadingsDropped    metric.Int64Counter
	CollectionsWritten metric.Int64Counter
	Completeness       metric.Float64Gauge
	StepDuration       metric.Float64Histogram
}

// InitializeTelemetry sets up tracing (stdout exporter or none) and metrics.
// traceFile and metricsFile are resolved paths; empty traceFile sends spans to
// stdout and empty metricsFile disables the textfile flush.
func InitializeTelemetry(cfg config.TelemetryConfig, traceFile, metricsFile string, logger *slog.Logger) (*Telemetry, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(config.AppVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{metricsFile: metricsFile, logger: logger}

	if err := t.initializeTracing(cfg, traceFile, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.initializeMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", metricsFile))

	return t, nil
}

func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, traceFile string, res *resource.Resource) error {
	switch cfg.TraceExporter {
	case "", "none":
		t.Tracer = otel.GetTracerProvider().Tracer(MeterName)
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	var out io.Writer = os.Stdout
	if traceFile != "" {
		if err := os.MkdirAll(filepath.Dir(traceFile), 0755); err != nil {
			return err
		}
		f, err := os.Create(traceFile)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		t.traceOut = f
		out = f
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	t.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(t.TracerProvider)
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.Registry = prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	metrics, err := CreatePipelineMetrics(t.MeterProvider.Meter(MeterName))
	if err != nil {
		return err
	}
	t.Metrics = metrics
	return nil
}

// CreatePipelineMetrics creates the run's instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stations, err := meter.Int64Counter("aq_stations_processed",
		metric.WithDescription("Stations processed by outcome"))
	if err != nil {
		return nil, err
	}

	accepted, err := meter.Int64Counter("aq_readings_accepted",
		metric.WithDescription("Readings that contributed to a monthly average"))
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter("aq_readings_dropped",
		metric.WithDescription("Readings dropped by reason"))
	if err != nil {
		return nil, err
	}

	collections, err := meter.Int64Counter("aq_collections_written",
		metric.WithDescription("Monthly feature collections written"))
	if err != nil {
		return nil, err
	}

	completeness, err := meter.Float64Gauge("aq_data_completeness_percent",
		metric.WithDescription("Share of non-missing station-month cells"),
		metric.WithUnit("%"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("aq_step_duration_seconds",
		metric.WithDescription("Pipeline step duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		StationsProcessed:  stations,
		ReadingsAccepted:   accepted,
		ReadingsDropped:    dropped,
		CollectionsWritten: collections,
		Completeness:       completeness,
		StepDuration:       duration,
	}, nil
}

// RecordStation counts one station outcome
func (m *PipelineMetrics) RecordStation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.StationsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordReadings counts accepted and dropped readings of one station
func (m *PipelineMetrics) RecordReadings(ctx context.Context, accepted, badValue, badDate int) {
	if m == nil {
		return
	}
	m.ReadingsAccepted.Add(ctx, int64(accepted))
	m.ReadingsDropped.Add(ctx, int64(badValue), metric.WithAttributes(attribute.String("reason", "invalid_value")))
	m.ReadingsDropped.Add(ctx, int64(badDate), metric.WithAttributes(attribute.String("reason", "invalid_date")))
}

// RecordCollection counts one written monthly collection
func (m *PipelineMetrics) RecordCollection(ctx context.Context, month string) {
	if m == nil {
		return
	}
	m.CollectionsWritten.Add(ctx, 1)
}

// RecordCompleteness sets the completeness gauge
func (m *PipelineMetrics) RecordCompleteness(ctx context.Context, pct float64) {
	if m == nil {
		return
	}
	m.Completeness.Record(ctx, pct)
}

// RecordStep records a step duration and its success
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.StepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.Bool("success", success),
	))
}

// WriteMetrics flushes the registry to the configured textfile
func (t *Telemetry) WriteMetrics() error {
	if t == nil || t.metricsFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.metricsFile), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(t.metricsFile, t.Registry)
}

// Shutdown flushes spans and closes providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %v", errs)
	}
	return nil
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
