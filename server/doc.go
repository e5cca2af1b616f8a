// Package server is the optional HTTP transport. It serves the same tools as
// the stdio transport through Gin, with h2c so HTTP/2 works without TLS.
//
// # Endpoints
//
//   - GET /health: component health, 503 when a dependency is down
//   - GET /info: build information and component descriptions
//   - GET /tools: the tool list with JSON schemas
//   - POST /tools/:name: run a tool; the body is the arguments object
//
// Transcription calls pass through a bulkhead so only one job runs at a
// time; callers that cannot get a slot within the configured wait get 503.
package server
