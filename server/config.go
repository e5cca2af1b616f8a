package server

import (
	"github.com/kbukum/video-transcribe-mcp/validation"
)

// Config holds HTTP transport configuration.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	// Timeouts are in seconds. WriteTimeout must outlast the longest job.
	ReadTimeout  int `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  int `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxBodyBytes caps tool argument bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8386
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 1800
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.New().
		Custom(c.Port >= 0 && c.Port <= 65535, "server.port", "must be between 0 and 65535").
		Min("server.read_timeout", c.ReadTimeout, 0).
		Min("server.write_timeout", c.WriteTimeout, 0).
		Min("server.idle_timeout", c.IdleTimeout, 0).
		Positive("server.max_body_bytes", c.MaxBodyBytes).
		Err()
}
