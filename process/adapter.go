package process

import (
	"context"
	"time"

	"github.com/kbukum/video-transcribe-mcp/provider"
)

var _ provider.RequestResponse[Command, *Result] = (*Adapter)(nil)

// Config configures a process adapter.
type Config struct {
	// Name identifies the adapter in logs and provider registries.
	Name string `yaml:"name,omitempty" mapstructure:"name"`
	// Binary is used when a Command leaves Binary empty.
	Binary string `yaml:"binary,omitempty" mapstructure:"binary"`
	// GracePeriod is the default grace period for SIGTERM→SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout is the default per-command timeout. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Adapter runs subprocesses as a provider.RequestResponse, filling
// command defaults from its Config.
type Adapter struct {
	config Config
}

// NewAdapter creates a new process adapter.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{config: cfg}
}

// Run executes a command, applying adapter-level defaults.
func (a *Adapter) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		cmd.Binary = a.config.Binary
	}
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = a.config.GracePeriod
	}
	if cmd.Timeout == 0 {
		cmd.Timeout = a.config.Timeout
	}
	return Run(ctx, cmd)
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return a.config.Name
}

// IsAvailable reports whether the default binary resolves on PATH. Adapters
// without a default binary are always available.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	if a.config.Binary == "" {
		return true
	}
	_, err := LookPath(a.config.Binary)
	return err == nil
}

// Execute runs a command.
func (a *Adapter) Execute(ctx context.Context, cmd Command) (*Result, error) {
	return a.Run(ctx, cmd)
}
