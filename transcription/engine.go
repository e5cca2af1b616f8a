package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/observability"
	"github.com/kbukum/video-transcribe-mcp/provider"
)

// LanguageAuto asks the model to detect the spoken language.
const LanguageAuto = "auto"

var _ component.Component = (*Engine)(nil)

// Engine owns the transcription backend. The backend is created on the
// first Transcribe call and reused until Stop.
type Engine struct {
	cfg      Config
	registry *provider.Registry[Provider]
	metrics  *observability.Metrics
	log      *logger.Logger
	lazy     *component.BaseLazyComponent

	mu      sync.RWMutex
	raw     Provider
	backend Provider
}

// NewEngine creates an engine that builds cfg.Backend from registry on
// first use. metrics may be nil.
func NewEngine(cfg Config, registry *provider.Registry[Provider], metrics *observability.Metrics) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: registry,
		metrics:  metrics,
		log:      logger.Get("engine"),
	}
	e.lazy = component.NewBaseLazyComponent("engine", e.load).
		WithCloser(e.unload).
		WithHealthCheck(e.checkBackend)
	return e
}

func (e *Engine) load(ctx context.Context) error {
	raw, err := e.registry.Create(e.cfg.Backend, e.cfg.ProviderConfig())
	if err != nil {
		return err
	}
	if err := provider.Init(ctx, raw); err != nil {
		return err
	}

	middlewares := []Middleware{
		provider.WithLogging[Request, *Response](e.log),
		provider.WithTracing[Request, *Response]("engine"),
	}
	if e.metrics != nil {
		middlewares = append(middlewares, provider.WithMetrics[Request, *Response](e.metrics))
	}

	e.mu.Lock()
	e.raw = raw
	e.backend = provider.Chain(middlewares...)(raw)
	e.mu.Unlock()

	e.log.Info("transcription backend ready", logger.Fields(
		"backend", e.cfg.Backend,
		"model", e.cfg.Model,
		"device", e.cfg.Device,
		"compute_type", e.cfg.ComputeType,
	))
	return nil
}

func (e *Engine) unload() error {
	e.mu.Lock()
	raw := e.raw
	e.raw, e.backend = nil, nil
	e.mu.Unlock()
	if raw == nil {
		return nil
	}
	return provider.Close(context.Background(), raw)
}

// backendHealthError carries a non-healthy backend status.
type backendHealthError struct {
	backend string
	status  provider.HealthStatus
}

func (e *backendHealthError) Error() string {
	if e.status.Message != "" {
		return e.status.Message
	}
	return fmt.Sprintf("%s backend is %s", e.backend, e.status.Status)
}

func (e *Engine) checkBackend(ctx context.Context) error {
	raw := e.loaded()
	if raw == nil {
		return nil
	}
	hs := provider.CheckHealth(ctx, raw)
	if hs.Status == provider.StatusHealthy {
		return nil
	}
	return &backendHealthError{backend: raw.Name(), status: hs}
}

func (e *Engine) loaded() Provider {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.raw
}

func (e *Engine) current() Provider {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.backend
}

// Transcribe runs the backend on audioPath. language "auto" or empty lets
// the model detect it; any other value is passed through. Segment text is
// trimmed. An empty result is not an error here.
func (e *Engine) Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error) {
	if err := e.lazy.Initialize(ctx); err != nil {
		return nil, err
	}
	backend := e.current()
	if backend == nil {
		return nil, fmt.Errorf("transcription engine is stopped")
	}

	if language == LanguageAuto {
		language = ""
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	resp, err := backend.Execute(ctx, Request{
		AudioPath:      audioPath,
		Language:       language,
		Model:          e.cfg.Model,
		BeamSize:       e.cfg.BeamSize,
		VADFilter:      true,
		WordTimestamps: false,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	return segments, nil
}

// Name implements component.Component.
func (e *Engine) Name() string { return "engine" }

// Start is a no-op; the backend loads on first use.
func (e *Engine) Start(ctx context.Context) error {
	e.log.Debug("engine registered, backend loads on first job", logger.Fields("backend", e.cfg.Backend))
	return nil
}

// Stop releases the backend.
func (e *Engine) Stop(ctx context.Context) error {
	return e.lazy.Close()
}

// Health reports whether the backend is loaded and available.
func (e *Engine) Health(ctx context.Context) component.Health {
	h := component.Health{Name: e.Name(), Status: component.StatusHealthy}
	if !e.lazy.IsInitialized() {
		if err := e.lazy.LastError(); err != nil {
			h.Status = component.StatusDegraded
			h.Message = err.Error()
			return h
		}
		h.Message = "not loaded"
		return h
	}
	if err := e.lazy.HealthCheck(ctx); err != nil {
		h.Status = component.StatusUnhealthy
		var be *backendHealthError
		if errors.As(err, &be) && be.status.Status == provider.StatusDegraded {
			h.Status = component.StatusDegraded
		}
		h.Message = err.Error()
		return h
	}
	h.Message = "loaded"
	return h
}

// Describe implements component.Describable.
func (e *Engine) Describe() component.Description {
	return component.Description{
		Name:    "Transcription engine",
		Type:    "engine",
		Details: fmt.Sprintf("%s model=%s device=%s compute=%s", e.cfg.Backend, e.cfg.Model, e.cfg.Device, e.cfg.ComputeType),
	}
}
