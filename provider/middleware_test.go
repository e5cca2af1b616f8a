package provider_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/observability"
	"github.com/kbukum/video-transcribe-mcp/provider"
)

// fakeBackend stands in for a transcription backend: audio path in,
// number of segments out.
type fakeBackend struct {
	available bool
	err       error
	calls     int
}

func (f *fakeBackend) Name() string                       { return "fake-whisper" }
func (f *fakeBackend) IsAvailable(_ context.Context) bool { return f.available }
func (f *fakeBackend) Execute(_ context.Context, audio string) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return len(audio), nil
}

type tagged struct {
	inner provider.RequestResponse[string, int]
	tag   string
	trail *[]string
}

func (t *tagged) Name() string                         { return t.inner.Name() }
func (t *tagged) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }
func (t *tagged) Execute(ctx context.Context, in string) (int, error) {
	*t.trail = append(*t.trail, ">"+t.tag)
	out, err := t.inner.Execute(ctx, in)
	*t.trail = append(*t.trail, "<"+t.tag)
	return out, err
}

func tag(name string, trail *[]string) provider.Middleware[string, int] {
	return func(inner provider.RequestResponse[string, int]) provider.RequestResponse[string, int] {
		return &tagged{inner: inner, tag: name, trail: trail}
	}
}

func TestChain_Order(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"empty chain is the backend itself", nil, ""},
		{"single", []string{"log"}, ">log,<log"},
		{"first is outermost", []string{"log", "trace", "metrics"}, ">log,>trace,>metrics,<metrics,<trace,<log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trail []string
			var mws []provider.Middleware[string, int]
			for _, name := range tt.tags {
				mws = append(mws, tag(name, &trail))
			}
			backend := &fakeBackend{available: true}
			wrapped := provider.Chain(mws...)(backend)

			n, err := wrapped.Execute(context.Background(), "/tmp/a.m4a")
			if err != nil || n != len("/tmp/a.m4a") {
				t.Fatalf("Execute = %d, %v", n, err)
			}
			if got := strings.Join(trail, ","); got != tt.want {
				t.Errorf("trail = %q, want %q", got, tt.want)
			}
			if len(tt.tags) == 0 && wrapped != provider.RequestResponse[string, int](backend) {
				t.Error("empty chain should return the backend unchanged")
			}
		})
	}
}

func TestWithLogging(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
	}{
		{"success logs at debug", nil, "debug"},
		{"failure logs at error", errors.New("model not found"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)
			wrapped := provider.WithLogging[string, int](log)(&fakeBackend{err: tt.err})

			ctx := logger.ContextWithJobID(context.Background(), "job-7")
			_, err := wrapped.Execute(ctx, "a.wav")
			if !errors.Is(err, tt.err) {
				t.Fatalf("error should pass through unchanged, got %v", err)
			}

			var entry map[string]any
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				t.Fatalf("decode %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel || entry["provider"] != "fake-whisper" || entry[logger.FieldJobID] != "job-7" {
				t.Errorf("unexpected log entry %v", entry)
			}
			if tt.err != nil && entry[logger.FieldError] != tt.err.Error() {
				t.Errorf("expected error field, got %v", entry[logger.FieldError])
			}
		})
	}
}

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	ok := provider.WithTracing[string, int]("engine")(&fakeBackend{})
	failing := provider.WithTracing[string, int]("engine")(&fakeBackend{err: errors.New("decode failed")})
	ok.Execute(context.Background(), "a.wav")
	failing.Execute(context.Background(), "b.wav")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "engine.fake-whisper" {
		t.Errorf("unexpected span name %q", spans[0].Name)
	}
	if spans[0].Status.Code == codes.Error {
		t.Error("successful call should not mark the span as failed")
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("failed call should set error status, got %v", spans[1].Status)
	}
}

func TestWithMetrics(t *testing.T) {
	m, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	backend := &fakeBackend{err: errors.New("sidecar busy")}
	wrapped := provider.WithMetrics[string, int](m)(backend)

	if _, err := wrapped.Execute(context.Background(), "a.wav"); err == nil {
		t.Error("expected backend error")
	}
	if backend.calls != 1 {
		t.Errorf("expected one backend call, got %d", backend.calls)
	}
}

func TestMiddlewares_DelegateNameAndAvailability(t *testing.T) {
	m, _ := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	log := logger.NewWithWriter(&logger.Config{Level: "error"}, "test", &bytes.Buffer{})

	middlewares := map[string]provider.Middleware[string, int]{
		"logging": provider.WithLogging[string, int](log),
		"tracing": provider.WithTracing[string, int]("engine"),
		"metrics": provider.WithMetrics[string, int](m),
	}
	for name, mw := range middlewares {
		t.Run(name, func(t *testing.T) {
			for _, available := range []bool{true, false} {
				wrapped := mw(&fakeBackend{available: available})
				if wrapped.IsAvailable(context.Background()) != available {
					t.Errorf("IsAvailable should report %v", available)
				}
				if wrapped.Name() != "fake-whisper" {
					t.Errorf("Name = %q", wrapped.Name())
				}
			}
		})
	}
}
