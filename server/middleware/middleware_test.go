package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", buf)
}

func TestRecovery_Panic(t *testing.T) {
	var logs bytes.Buffer
	r := gin.New()
	r.Use(middleware.Recovery(testLogger(&logs)))
	r.GET("/boom", func(*gin.Context) { panic("model exploded") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["error"] != "model exploded" {
		t.Errorf("unexpected body %v", body)
	}
	if !strings.Contains(logs.String(), "panic recovered") {
		t.Errorf("expected panic log, got %q", logs.String())
	}
}

func TestRequestID(t *testing.T) {
	valid := uuid.NewString()
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"valid uuid kept", valid, true},
		{"garbage replaced", "custom-id-123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := gin.New()
			r.Use(middleware.RequestID())
			r.GET("/", func(c *gin.Context) {
				seen = logger.RequestIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set(middleware.HeaderRequestID, tt.incoming)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			got := rr.Header().Get(middleware.HeaderRequestID)
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("response id %q is not a UUID", got)
			}
			if tt.keep && got != tt.incoming {
				t.Errorf("expected %s to be kept, got %s", tt.incoming, got)
			}
			if seen != got {
				t.Errorf("context id %q does not match header %q", seen, got)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	r := gin.New()
	r.Use(middleware.RequestLogger(testLogger(&logs)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/tools/:name", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if logs.Len() != 0 {
		t.Errorf("/health should not be logged, got %q", logs.String())
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/tools/bogus", http.NoBody))
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("bad log line %q: %v", logs.String(), err)
	}
	if entry["level"] != "warn" || entry["status"] != float64(404) || entry["path"] != "/tools/bogus" {
		t.Errorf("unexpected log entry %v", entry)
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(middleware.BodySizeLimit(8))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	small := httptest.NewRecorder()
	r.ServeHTTP(small, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	if small.Code != http.StatusOK {
		t.Errorf("small body: expected 200, got %d", small.Code)
	}

	large := httptest.NewRecorder()
	r.ServeHTTP(large, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"url":"https://youtu.be/x"}`)))
	if large.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: expected 413, got %d", large.Code)
	}
}
