package transcription

import "github.com/kbukum/video-transcribe-mcp/provider"

// Provider is the interface transcription backends implement.
type Provider = provider.RequestResponse[Request, *Response]

// Middleware wraps a Provider.
type Middleware = provider.Middleware[Request, *Response]
