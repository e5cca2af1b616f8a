package endpoint

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
	"github.com/kbukum/video-transcribe-mcp/resilience"
	"github.com/kbukum/video-transcribe-mcp/tools"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	// retryAfter is sent with 503 while another job holds the slot.
	retryAfter = "30"
)

// ListTools returns the tool list with JSON schemas.
func ListTools() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tools": tools.Definitions()})
	}
}

// CallTool runs the tool named in the path with the request body as its
// arguments. The response body is the same rendered JSON the stdio
// transport returns; failures also set the status from the error.
func CallTool(r Routes) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		name := c.Param("name")

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respond(c, tools.Result{Tool: name, Err: apperrors.InvalidInput("body", err.Error())})
			return
		}

		if r.Jobs == nil || !needsSlot(r.Dispatcher, name) {
			respond(c, r.Dispatcher.Call(ctx, name, body))
			return
		}
		res, err := resilience.ExecuteWithResult(ctx, r.Jobs, func() (tools.Result, error) {
			return r.Dispatcher.Call(ctx, name, body), nil
		})
		if err != nil {
			res = tools.Result{Tool: name, Err: apperrors.ServiceUnavailable("transcriber").WithCause(err)}
		}
		respond(c, res)
	}
}

// needsSlot reports whether a call runs a transcription job. Listing and
// unknown names never wait for the job slot.
func needsSlot(d *tools.Dispatcher, name string) bool {
	return d.Has(name) && name != tools.NameListTranscripts
}

func respond(c *gin.Context, res tools.Result) {
	text, err := tools.Render(res)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apperrors.ResultFrom(err))
		return
	}
	status := http.StatusOK
	if res.Err != nil {
		status = http.StatusInternalServerError
		if appErr, ok := apperrors.AsAppError(res.Err); ok && appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		if apperrors.HasCode(res.Err, apperrors.ErrCodeServiceUnavailable) {
			c.Header("Retry-After", retryAfter)
		}
	}
	c.Data(status, contentTypeJSON, []byte(text))
}
