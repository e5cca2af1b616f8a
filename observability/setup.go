package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config is the telemetry section of the application config.
type Config struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills empty fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	if c.Interval < 0 {
		return fmt.Errorf("telemetry.interval must be non-negative (got: %s)", c.Interval)
	}
	return nil
}

// Resource identifies the process in exported telemetry.
type Resource struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Setup installs tracer and meter providers when cfg.Enabled and returns the
// job metrics plus a shutdown func. When disabled the global no-op providers
// stay in place and the metrics record nothing.
func Setup(ctx context.Context, cfg Config, res Resource) (*Metrics, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		m, err := NewMetrics(Meter())
		return m, noop, err
	}

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    res.ServiceName,
		ServiceVersion: res.ServiceVersion,
		Environment:    res.Environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SampleRate:     cfg.SampleRate,
	})
	if err != nil {
		return nil, noop, err
	}
	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    res.ServiceName,
		ServiceVersion: res.ServiceVersion,
		Environment:    res.Environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		Interval:       cfg.Interval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, noop, err
	}

	m, err := NewMetrics(Meter())
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, noop, err
	}
	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return m, shutdown, nil
}
