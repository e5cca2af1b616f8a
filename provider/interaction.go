package provider

import "context"

// RequestResponse is a provider that takes one input and returns one output:
// a subprocess run, an HTTP call, a transcription.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}
