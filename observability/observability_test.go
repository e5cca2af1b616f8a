package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
)

// recordSpans installs an in-memory tracer provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func attr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordJobStart(ctx)
	metrics.RecordJobEnd(ctx, "transcribe_url", "ok", 100*time.Millisecond)
	metrics.RecordOperation(ctx, "pipeline", SpanDownload, "ok", 50*time.Millisecond)
	metrics.RecordError(ctx, "DOWNLOAD_FAILED", "transcribe_url")
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"app error", apperrors.NoSpeech("video"), "NO_SPEECH_DETECTED"},
		{"wrapped app error", fmt.Errorf("x: %w", apperrors.DownloadFailed("u")), "DOWNLOAD_FAILED"},
		{"plain", fmt.Errorf("boom"), "INTERNAL_ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Errorf("Status() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestJobSpans(t *testing.T) {
	exporter := recordSpans(t)
	metrics, _ := NewMetrics(noop.NewMeterProvider().Meter("test"))

	ctx, job := StartJob(context.Background(), metrics, "transcribe_url", "job-1")
	_, end := job.Stage(ctx, SpanDownload)
	end(apperrors.DownloadFailed("https://example.com/v"))
	job.End(ctx, apperrors.DownloadFailed("https://example.com/v"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	stage, root := spans[0], spans[1]
	if stage.Name != SpanDownload || root.Name != SpanJob {
		t.Fatalf("unexpected span names %q, %q", stage.Name, root.Name)
	}
	if stage.Parent.SpanID() != root.SpanContext.SpanID() {
		t.Error("stage span should be a child of the job span")
	}
	if root.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", root.Status.Code)
	}
	if v, ok := attr(root, AttrErrorCode); !ok || v.AsString() != "DOWNLOAD_FAILED" {
		t.Errorf("expected error code attribute, got %v", v)
	}
	if v, ok := attr(root, AttrJobID); !ok || v.AsString() != "job-1" {
		t.Errorf("expected job id attribute, got %v", v)
	}
}

func TestJobSuccessWithoutMetrics(t *testing.T) {
	exporter := recordSpans(t)

	ctx, job := StartJob(context.Background(), nil, "list_transcripts", "job-2")
	job.End(ctx, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if v, _ := attr(spans[0], AttrStatus); v.AsString() != "ok" {
		t.Errorf("expected status ok, got %v", v)
	}
	if job.Duration() <= 0 {
		t.Error("expected positive duration")
	}
}

func TestSetSpanAttributeAndError(t *testing.T) {
	exporter := recordSpans(t)

	ctx, span := StartSpan(context.Background(), "attrs")
	SetSpanAttribute(ctx, "s", "value")
	SetSpanAttribute(ctx, "i", 42)
	SetSpanAttribute(ctx, "i64", int64(100))
	SetSpanAttribute(ctx, "f", 3.14)
	SetSpanAttribute(ctx, "b", true)
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, fmt.Errorf("test error"))
	span.End()

	got := exporter.GetSpans()[0]
	if len(got.Attributes) != 5 {
		t.Errorf("expected 5 attributes, got %d", len(got.Attributes))
	}
	if len(got.Events) != 1 {
		t.Errorf("expected 1 error event, got %d", len(got.Events))
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
	}
	for _, tc := range tests {
		if got := samplerFor(tc.rate).Description(); got != tc.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
	if samplerFor(0.5) == nil {
		t.Error("expected ratio sampler")
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("video-transcribe-mcp", "1.2.3", "test")
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "video-transcribe-mcp" {
			found = true
		}
	}
	if !found {
		t.Error("expected service.name attribute")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample_rate > 1")
	}
}

func TestSetupDisabled(t *testing.T) {
	metrics, shutdown, err := Setup(context.Background(), Config{}, Resource{ServiceName: "svc"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected metrics even when disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetupEnabled(t *testing.T) {
	cfg := Config{Enabled: true, Insecure: true}
	cfg.ApplyDefaults()

	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	metrics, shutdown, err := Setup(context.Background(), cfg, Resource{ServiceName: "svc", ServiceVersion: "0.0.1", Environment: "test"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected metrics")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// No collector is listening; shutdown may report an export error.
	_ = shutdown(ctx)
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("svc", "1.0.0")
	if sh.Status != HealthStatusUp {
		t.Fatalf("expected up, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "yt-dlp", Status: HealthStatusUp})
	sh.AddComponent(Health{Name: "engine", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "python", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "x", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected down to stick, got %s", sh.Status)
	}
	if len(sh.Components) != 4 {
		t.Errorf("expected 4 components, got %d", len(sh.Components))
	}
}
