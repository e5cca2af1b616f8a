package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/video-transcribe-mcp/logger"
)

// stopTimeout bounds each component's Stop within StopAll.
const stopTimeout = 10 * time.Second

type entry struct {
	c       Component
	started bool
}

// Registry owns the components of the process. Start order is registration
// order; stop order is the reverse, so register what others depend on first
// (store, downloader, engine, then the transcriber and the transport).
type Registry struct {
	mu     sync.RWMutex
	order  []*entry
	byName map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*entry)}
}

// Register adds c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{c: c}
	r.order = append(r.order, e)
	r.byName[name] = e

	logger.Debug("component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts every component in order. When one fails, the ones
// already started are stopped again before the error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("starting components", logger.Fields("count", len(r.order)))
	for _, e := range r.order {
		name := e.c.Name()
		start := time.Now()
		if err := e.c.Start(ctx); err != nil {
			logger.Error("component start failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
			if stopErr := r.stopStarted(ctx); stopErr != nil {
				logger.Warn("rollback after failed start", logger.Fields(logger.FieldError, stopErr.Error()))
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		e.started = true
		logger.Debug("component started", logger.Fields(
			logger.FieldComponent, name,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}
	return nil
}

// StopAll stops started components in reverse order. Every component gets
// its Stop call; the errors are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("stopping components")
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var errs []error
	for i := len(r.order) - 1; i >= 0; i-- {
		e := r.order[i]
		if !e.started {
			continue
		}
		name := e.c.Name()

		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := e.c.Stop(stopCtx)
		cancel()
		e.started = false

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			logger.Error("component stop failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
			continue
		}
		logger.Debug("component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll reports every component's health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.order))
	for _, e := range r.order {
		h := e.c.Health(ctx)
		if h.Name == "" {
			h.Name = e.c.Name()
		}
		out = append(out, h)
	}
	return out
}

// Get returns the named component, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byName[name]; ok {
		return e.c
	}
	return nil
}

// Describe lists what each component is. Components that do not implement
// Describable are listed by name.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Description, 0, len(r.order))
	for _, e := range r.order {
		d := Description{Name: e.c.Name()}
		if desc, ok := e.c.(Describable); ok {
			d = desc.Describe()
			if d.Name == "" {
				d.Name = e.c.Name()
			}
		}
		out = append(out, d)
	}
	return out
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, e.c)
	}
	return out
}
