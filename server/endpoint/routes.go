// Package endpoint holds the Gin handlers of the HTTP transport.
package endpoint

import (
	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/resilience"
	"github.com/kbukum/video-transcribe-mcp/tools"
)

// Routes carries what the handlers need.
type Routes struct {
	// Service is reported by /health and /info.
	Service string
	// Dispatcher runs tool calls.
	Dispatcher *tools.Dispatcher
	// Jobs serializes transcription calls. Nil disables the limit.
	Jobs *resilience.Bulkhead
	// Components provides health and descriptions. May be nil.
	Components *component.Registry
}
