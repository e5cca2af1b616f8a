package downloader

import (
	"time"

	"github.com/kbukum/video-transcribe-mcp/validation"
)

// Config configures the yt-dlp client.
type Config struct {
	// Binary is the yt-dlp executable, resolved on PATH when not absolute.
	Binary string `yaml:"binary" mapstructure:"binary"`
	// ProbeTimeout bounds the metadata probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	// DownloadTimeout bounds audio acquisition.
	DownloadTimeout time.Duration `yaml:"download_timeout" mapstructure:"download_timeout"`
	// GracePeriod is how long yt-dlp gets after SIGTERM before SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "yt-dlp"
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 60 * time.Second
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = 300 * time.Second
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 5 * time.Second
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	return validation.New().
		Required("downloader.binary", c.Binary).
		Positive("downloader.probe_timeout", int64(c.ProbeTimeout)).
		Positive("downloader.download_timeout", int64(c.DownloadTimeout)).
		Custom(c.GracePeriod >= 0, "downloader.grace_period", "must not be negative").
		Err()
}
