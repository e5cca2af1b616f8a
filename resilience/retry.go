package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig configures Retry. Zero fields take the DefaultRetryConfig
// value, except Jitter and OnRetry.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64
	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool
	// OnRetry runs before sleeping; attempt is the one that just failed.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryConfig returns three attempts with exponential backoff from
// 100ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context cancellation and expiry.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = d.RetryIf
	}
	return c
}

// Retry calls fn until it succeeds, RetryIf rejects the error, attempts run
// out or ctx is done. On failure it returns the last error from fn, or the
// context error if ctx ended first.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}

		backoff := calculateBackoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}
		if err := sleep(ctx, backoff); err != nil {
			return zero, err
		}
	}
}

// calculateBackoff returns the delay after the given failed attempt:
// InitialBackoff * BackoffFactor^(attempt-1), jittered, capped at MaxBackoff.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff)
	for i := 1; i < attempt; i++ {
		d *= cfg.BackoffFactor
		if d >= float64(cfg.MaxBackoff) {
			break
		}
	}
	if cfg.Jitter > 0 {
		d += d * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	if d <= 0 {
		d = float64(cfg.InitialBackoff)
	}
	return time.Duration(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
