package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed part of the server: the
// transcription engine, the downloader, the transcript store, a transport.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start prepares the component. Expensive work may be deferred.
	Start(ctx context.Context) error

	// Stop releases resources held by the component.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description is a one-line summary of a component for startup logs and
// the /info endpoint.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string `json:"name"`
	// Type categorizes the component: "engine", "downloader", "store", "transport".
	Type string `json:"type"`
	// Details is a human-readable one-liner, e.g. "yt-dlp probe=60s download=5m0s".
	Details string `json:"details,omitempty"`
}

// Describable is optionally implemented by Components to self-report
// what they are and how they're configured.
type Describable interface {
	Describe() Description
}
