package component

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/video-transcribe-mcp/logger"
)

// BaseLazyComponent runs an expensive initializer, such as loading a speech
// model, on first use. Concurrent callers wait for the same attempt. A
// failed attempt is remembered for health reporting and retried on the
// next call.
type BaseLazyComponent struct {
	name        string
	initializer func(ctx context.Context) error
	healthCheck func(ctx context.Context) error
	closer      func() error

	// initMu serializes attempts; mu guards the state below so health
	// reads do not wait for a model load.
	initMu   sync.Mutex
	mu       sync.Mutex
	ready    bool
	lastErr  error
	attempts int
}

// NewBaseLazyComponent creates a lazy component around initializer.
func NewBaseLazyComponent(name string, initializer func(context.Context) error) *BaseLazyComponent {
	return &BaseLazyComponent{name: name, initializer: initializer}
}

// Name returns the component name.
func (b *BaseLazyComponent) Name() string { return b.name }

// Initialize runs the initializer unless a previous attempt succeeded.
func (b *BaseLazyComponent) Initialize(ctx context.Context) error {
	b.initMu.Lock()
	defer b.initMu.Unlock()

	if b.IsInitialized() {
		return nil
	}
	if b.initializer == nil {
		return fmt.Errorf("no initializer for component: %s", b.name)
	}

	b.mu.Lock()
	b.attempts++
	attempt := b.attempts
	b.mu.Unlock()

	logger.Debug("initializing", logger.Fields(logger.FieldComponent, b.name, "attempt", attempt))
	err := b.initializer(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.lastErr = err
		return err
	}
	b.ready, b.lastErr = true, nil
	return nil
}

// LastError returns the error of the most recent failed attempt, cleared by
// a successful one.
func (b *BaseLazyComponent) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Attempts returns how many times the initializer has run.
func (b *BaseLazyComponent) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// IsInitialized reports whether an attempt has succeeded since the last Close.
func (b *BaseLazyComponent) IsInitialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// HealthCheck fails when not initialized, else runs the custom check if set.
func (b *BaseLazyComponent) HealthCheck(ctx context.Context) error {
	if !b.IsInitialized() {
		return fmt.Errorf("component %s not initialized", b.name)
	}
	if b.healthCheck != nil {
		return b.healthCheck(ctx)
	}
	return nil
}

// Close runs the closer if initialized. The next Initialize starts over.
func (b *BaseLazyComponent) Close() error {
	b.initMu.Lock()
	defer b.initMu.Unlock()

	b.mu.Lock()
	wasReady := b.ready
	b.ready = false
	b.mu.Unlock()
	if wasReady && b.closer != nil {
		return b.closer()
	}
	return nil
}

// WithHealthCheck sets the check HealthCheck runs once initialized.
func (b *BaseLazyComponent) WithHealthCheck(fn func(context.Context) error) *BaseLazyComponent {
	b.healthCheck = fn
	return b
}

// WithCloser sets the function Close runs.
func (b *BaseLazyComponent) WithCloser(fn func() error) *BaseLazyComponent {
	b.closer = fn
	return b
}
