package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/video-transcribe-mcp/config"
	"github.com/kbukum/video-transcribe-mcp/downloader"
	"github.com/kbukum/video-transcribe-mcp/observability"
	"github.com/kbukum/video-transcribe-mcp/server"
	"github.com/kbukum/video-transcribe-mcp/transcription"
	"github.com/kbukum/video-transcribe-mcp/util"
	"github.com/kbukum/video-transcribe-mcp/validation"
)

const (
	serviceName = "video-transcribe-mcp"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the process configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Transport       string               `yaml:"transport" mapstructure:"transport"`
	DefaultLanguage string               `yaml:"default_language" mapstructure:"default_language"`
	TranscriptsDir  string               `yaml:"transcripts_dir" mapstructure:"transcripts_dir"`
	TempDir         string               `yaml:"temp_dir" mapstructure:"temp_dir"`
	Whisper         transcription.Config `yaml:"whisper" mapstructure:"whisper"`
	Downloader      downloader.Config    `yaml:"downloader" mapstructure:"downloader"`
	Server          server.Config        `yaml:"server" mapstructure:"server"`
	Jobs            JobsConfig           `yaml:"jobs" mapstructure:"jobs"`
	Telemetry       observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// JobsConfig limits concurrent jobs on the HTTP transport.
type JobsConfig struct {
	// MaxWait is how long a call waits for the running job before 503.
	// Zero rejects immediately.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// ApplyDefaults fills zero values in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "ru"
	}
	if c.TranscriptsDir == "" {
		c.TranscriptsDir = "~/Documents/Transcripts"
	}
	c.TranscriptsDir = absPath(util.ExpandHome(c.TranscriptsDir))
	if c.TempDir == "" {
		c.TempDir = filepath.Join(os.TempDir(), serviceName)
	}
	c.TempDir = absPath(util.ExpandHome(c.TempDir))
	c.Whisper.ApplyDefaults()
	c.Downloader.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// absPath resolves p against the working directory at startup.
func absPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Validate checks every section. Under the stdio transport logs must not
// go to stdout.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(c.Transport == TransportStdio); err != nil {
		return err
	}
	if err := validation.New().
		OneOf("transport", c.Transport, []string{TransportStdio, TransportHTTP}).
		Required("transcripts_dir", c.TranscriptsDir).
		Required("temp_dir", c.TempDir).
		Custom(c.Jobs.MaxWait >= 0, "jobs.max_wait", "must not be negative").
		Err(); err != nil {
		return err
	}
	return errors.Join(
		c.Whisper.Validate(),
		c.Downloader.Validate(),
		c.Server.Validate(),
		c.Telemetry.Validate(),
	)
}
