package transcription

import (
	"time"

	"github.com/kbukum/video-transcribe-mcp/validation"
)

// Config configures the transcription engine and its backend.
type Config struct {
	// Backend selects the provider: "faster-whisper" or "sidecar".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Model is the model variant. WHISPER_MODEL overrides it.
	Model string `yaml:"model" mapstructure:"model"`
	// Device is "auto", "cpu" or "cuda".
	Device string `yaml:"device" mapstructure:"device"`
	// ComputeType is "auto", "int8", "float16", ...
	ComputeType string `yaml:"compute_type" mapstructure:"compute_type"`
	// BeamSize is the decoding beam width.
	BeamSize int `yaml:"beam_size" mapstructure:"beam_size"`
	// Python is the interpreter used by the faster-whisper backend.
	Python string `yaml:"python" mapstructure:"python"`
	// URL is the sidecar base URL used by the sidecar backend.
	URL string `yaml:"url" mapstructure:"url"`
	// Timeout bounds one transcription. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Retries is how many extra attempts the sidecar backend makes against
	// an unreachable or busy sidecar. Zero means a single attempt.
	Retries int `yaml:"retries" mapstructure:"retries"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFasterWhisper
	}
	if c.Model == "" {
		c.Model = "large-v3"
	}
	if c.Device == "" {
		c.Device = "auto"
	}
	if c.ComputeType == "" {
		c.ComputeType = "auto"
	}
	if c.BeamSize == 0 {
		c.BeamSize = 5
	}
	if c.Python == "" {
		c.Python = "python3"
	}
	if c.URL == "" {
		c.URL = "http://localhost:8387"
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	return validation.New().
		OneOf("whisper.backend", c.Backend, []string{BackendFasterWhisper, BackendSidecar}).
		Required("whisper.model", c.Model).
		Min("whisper.beam_size", c.BeamSize, 1).
		Custom(c.Timeout >= 0, "whisper.timeout", "must not be negative").
		Err()
}

// ProviderConfig returns the map handed to the backend factory.
func (c *Config) ProviderConfig() map[string]any {
	return map[string]any{
		"model":        c.Model,
		"device":       c.Device,
		"compute_type": c.ComputeType,
		"beam_size":    c.BeamSize,
		"python":       c.Python,
		"url":          c.URL,
		"timeout":      c.Timeout,
		"retries":      c.Retries,
	}
}
