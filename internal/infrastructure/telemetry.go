package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"chartdesk/pkg/contracts"
)

const (
	// ServiceName identifies this service in telemetry output.
	ServiceName = "chartdesk"
	// MeterName is the instrumentation scope for engine metrics.
	MeterName = "chartdesk"
)

// Telemetry holds the OpenTelemetry providers and the engine metrics.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Metrics        *EngineMetrics
	logger         *slog.Logger
}

// EngineMetrics are the application-specific instruments: edit pipeline
// outcomes, fetches, and upload counts.
type EngineMetrics struct {
	EditsApplied  metric.Int64Counter
	EditsRejected metric.Int64Counter
	FetchesTotal  metric.Int64Counter
	UploadsTotal  metric.Int64Counter
	FrameDuration metric.Float64Histogram
}

// InitializeTelemetry wires tracing (stdout exporter) and metrics
// (Prometheus exporter) and registers both globally.
func InitializeTelemetry(ctx context.Context, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Telemetry{logger: logger.With(slog.String("component", "telemetry"))}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(contracts.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(0.1)),
	)
	otel.SetTracerProvider(tp)
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(ServiceName)

	// A dedicated registry keeps repeated initialization (tests) from
	// colliding on the process-global default registerer.
	registry := promclient.NewRegistry()
	metricExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(metricExporter),
	)
	otel.SetMeterProvider(mp)
	t.MeterProvider = mp
	t.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))
	t.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	t.Metrics, err = createEngineMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("create engine metrics: %w", err)
	}

	t.logger.InfoContext(ctx, "telemetry initialized",
		slog.String("trace_exporter", "stdout"),
		slog.String("metric_exporter", "prometheus"))
	return t, nil
}

func createEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	m := &EngineMetrics{}
	var err error

	if m.EditsApplied, err = meter.Int64Counter("chartdesk_edits_applied_total",
		metric.WithDescription("Displayed-value edits applied to the raw store")); err != nil {
		return nil, err
	}
	if m.EditsRejected, err = meter.Int64Counter("chartdesk_edits_rejected_total",
		metric.WithDescription("Edits rejected by the inverse mapper or lock set")); err != nil {
		return nil, err
	}
	if m.FetchesTotal, err = meter.Int64Counter("chartdesk_series_fetches_total",
		metric.WithDescription("Series fetches served by the registry")); err != nil {
		return nil, err
	}
	if m.UploadsTotal, err = meter.Int64Counter("chartdesk_uploads_total",
		metric.WithDescription("Input files uploaded")); err != nil {
		return nil, err
	}
	if m.FrameDuration, err = meter.Float64Histogram("chartdesk_frame_duration_seconds",
		metric.WithDescription("Time to assemble a plot frame")); err != nil {
		return nil, err
	}
	return m, nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var firstErr error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
