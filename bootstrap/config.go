package bootstrap

import (
	"github.com/kbukum/video-transcribe-mcp/config"
)

// Config is the constraint for application configuration types. A struct
// embedding config.ServiceConfig gets GetServiceConfig and ApplyDefaults
// through promotion and defines its own Validate:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Transport string `yaml:"transport" mapstructure:"transport"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
