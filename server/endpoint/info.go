package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/version"
)

var startTime = time.Now()

// Info reports build information, uptime and what each component is.
func Info(r Routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []component.Description
		if r.Components != nil {
			components = r.Components.Describe()
		}
		c.JSON(http.StatusOK, gin.H{
			"service":    r.Service,
			"build":      version.Get(),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"components": components,
		})
	}
}
