package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
	"github.com/kbukum/video-transcribe-mcp/logger"
)

// Recovery recovers from panics, logs the stack and answers 500 with
// {"error": "<panic value>"}.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithContext(c.Request.Context()).Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apperrors.Internal(fmt.Errorf("%v", r)).ToResult())
			}
		}()
		c.Next()
	}
}
