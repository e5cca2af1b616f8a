package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/observability"
	"github.com/kbukum/video-transcribe-mcp/version"
)

var statusMap = map[component.HealthStatus]observability.HealthStatus{
	component.StatusHealthy:   observability.HealthStatusUp,
	component.StatusDegraded:  observability.HealthStatusDegraded,
	component.StatusUnhealthy: observability.HealthStatusDown,
}

// Health reports component health. Any component down turns the response
// into a 503.
func Health(r Routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(r.Service, version.Short())
		if r.Components != nil {
			for _, h := range r.Components.HealthAll(c.Request.Context()) {
				sh.AddComponent(observability.Health{
					Name:    h.Name,
					Status:  statusMap[h.Status],
					Message: h.Message,
				})
			}
		}

		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}
