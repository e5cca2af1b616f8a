// Package provider is a small generic framework for swappable backends.
//
// A RequestResponse[I, O] is anything that turns one input into one output:
// a subprocess, an HTTP sidecar, a speech model. Backends register factories
// in a Registry and are created by name from configuration. Middleware adds
// logging, tracing and metrics around Execute:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithTracing[In, Out]("engine"),
//	    provider.WithMetrics[In, Out](metrics),
//	)(backend)
//
// Adapt bridges a backend's types to a domain interface. Providers may also
// implement Initializable, Closeable and HealthChecker.
package provider
