package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/video-transcribe-mcp/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter installs a periodic OTLP meter provider as the global provider.
// The caller must shut it down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns the instrumentation meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the job and stage instruments.
type Metrics struct {
	jobTotal          metric.Int64Counter
	jobDuration       metric.Float64Histogram
	jobActive         metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates the instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	jobTotal, err := meter.Int64Counter("transcribe.jobs",
		metric.WithDescription("Completed tool jobs by tool and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.jobs counter: %w", err)
	}

	jobDuration, err := meter.Float64Histogram("transcribe.job.duration",
		metric.WithDescription("Wall time of tool jobs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.job.duration histogram: %w", err)
	}

	jobActive, err := meter.Int64UpDownCounter("transcribe.jobs.active",
		metric.WithDescription("Jobs currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.jobs.active counter: %w", err)
	}

	operationTotal, err := meter.Int64Counter("transcribe.operations",
		metric.WithDescription("Backend and stage executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.operations counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("transcribe.operation.duration",
		metric.WithDescription("Duration of backend and stage executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.operation.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("transcribe.errors",
		metric.WithDescription("Errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.errors counter: %w", err)
	}

	return &Metrics{
		jobTotal:          jobTotal,
		jobDuration:       jobDuration,
		jobActive:         jobActive,
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		errorTotal:        errorTotal,
	}, nil
}

// RecordJobStart increments the active job count.
func (m *Metrics) RecordJobStart(ctx context.Context) {
	m.jobActive.Add(ctx, 1)
}

// RecordJobEnd decrements active jobs and records the completed job.
func (m *Metrics) RecordJobEnd(ctx context.Context, tool, status string, duration time.Duration) {
	m.jobActive.Add(ctx, -1)
	m.jobTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("tool", tool),
	))
}

// RecordOperation records one stage or backend execution.
func (m *Metrics) RecordOperation(ctx context.Context, component, operation, status string, duration time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
