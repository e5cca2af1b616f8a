package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/logger"
)

// ComponentSummary is one line of the startup summary.
type ComponentSummary struct {
	Name    string
	Type    string
	Details string
	Status  component.HealthStatus
	Message string
}

// Summary is what the process reports once it is ready.
type Summary struct {
	Service         string
	Version         string
	StartupDuration time.Duration
	Components      []ComponentSummary
}

// CollectSummary builds a Summary from the registry. Descriptions come from
// components implementing component.Describable; everything else is listed
// by name.
func CollectSummary(ctx context.Context, service, version string, reg *component.Registry) *Summary {
	s := &Summary{Service: service, Version: version}

	health := make(map[string]component.Health)
	for _, h := range reg.HealthAll(ctx) {
		health[h.Name] = h
	}
	for _, c := range reg.All() {
		cs := ComponentSummary{Name: c.Name()}
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			cs.Type, cs.Details = desc.Type, desc.Details
			if desc.Name != "" {
				cs.Name = desc.Name
			}
		}
		if h, ok := health[c.Name()]; ok {
			cs.Status, cs.Message = h.Status, h.Message
		}
		s.Components = append(s.Components, cs)
	}
	return s
}

// Healthy counts components reporting healthy.
func (s *Summary) Healthy() int {
	n := 0
	for _, c := range s.Components {
		if c.Status == component.StatusHealthy {
			n++
		}
	}
	return n
}

// Log writes the summary as one line per component plus a closing line.
func (s *Summary) Log(log *logger.Logger) {
	for _, c := range s.Components {
		fields := logger.Fields(
			logger.FieldComponent, c.Name,
			"type", c.Type,
			"status", string(c.Status),
		)
		if c.Details != "" {
			fields["details"] = c.Details
		}
		if c.Message != "" {
			fields["message"] = c.Message
		}
		if c.Status == component.StatusHealthy {
			log.Info("component", fields)
		} else {
			log.Warn("component", fields)
		}
	}
	log.Info("ready", logger.Fields(
		"service", s.Service,
		"version", s.Version,
		"components", len(s.Components),
		"healthy", s.Healthy(),
		logger.FieldDuration, s.StartupDuration.Milliseconds(),
	))
}
