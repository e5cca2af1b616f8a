// Package whisper implements the transcription backend that talks to a
// faster-whisper HTTP sidecar. The sidecar keeps the model resident between
// jobs.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/provider"
	"github.com/kbukum/video-transcribe-mcp/resilience"
	"github.com/kbukum/video-transcribe-mcp/transcription"
)

const (
	// ProviderName is the registered name for the sidecar backend.
	ProviderName = transcription.BackendSidecar

	defaultWhisperURL   = "http://localhost:8387"
	defaultWhisperModel = "large-v3"
	healthTimeout       = 5 * time.Second
)

// errBusy marks a 503 from a sidecar that is still loading its model.
var errBusy = errors.New("sidecar busy")

// transientError marks a failure worth retrying.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Config holds configuration for the sidecar backend.
type Config struct {
	URL         string        `json:"url" yaml:"url"`
	Model       string        `json:"model" yaml:"model"`
	Device      string        `json:"device,omitempty" yaml:"device"`
	ComputeType string        `json:"compute_type,omitempty" yaml:"compute_type"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	// Retries is the number of extra attempts after a connection failure or
	// a 503. Zero means a single attempt.
	Retries int `json:"retries" yaml:"retries"`
	// Backoff is the delay before the first retry.
	Backoff time.Duration `json:"-" yaml:"-"`
	// Fs is where audio files are read from. Defaults to the OS filesystem.
	Fs afero.Fs `json:"-" yaml:"-"`
}

// Provider implements transcription.Provider against a faster-whisper sidecar.
type Provider struct {
	cfg    Config
	client *http.Client
}

var (
	_ transcription.Provider = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)

// NewProvider creates a new sidecar backend. A zero Timeout leaves requests
// bounded only by the caller's context.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = defaultWhisperURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Factory returns a provider.Factory that creates sidecar backends
// from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		wc := Config{}
		if v, ok := cfg["url"].(string); ok {
			wc.URL = v
		}
		if v, ok := cfg["model"].(string); ok {
			wc.Model = v
		}
		if v, ok := cfg["device"].(string); ok {
			wc.Device = v
		}
		if v, ok := cfg["compute_type"].(string); ok {
			wc.ComputeType = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			wc.Timeout = v
		}
		if v, ok := cfg["retries"].(int); ok {
			wc.Retries = v
		}
		if v, ok := cfg["fs"].(afero.Fs); ok {
			wc.Fs = v
		}
		return NewProvider(wc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the sidecar answers GET /health with 200.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.Health(ctx).Status == provider.StatusHealthy
}

// Health probes GET /health. A 503 means the sidecar is up but still
// loading its model.
func (p *Provider) Health(ctx context.Context) provider.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	details := map[string]any{"url": p.cfg.URL}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return provider.HealthStatus{Status: provider.StatusUnavailable, Message: err.Error(), Details: details}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return provider.HealthStatus{Status: provider.StatusUnavailable, Message: err.Error(), Details: details}
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return provider.HealthStatus{Status: provider.StatusHealthy, Details: details}
	case http.StatusServiceUnavailable:
		return provider.HealthStatus{Status: provider.StatusDegraded, Message: "sidecar is loading", Details: details}
	default:
		return provider.HealthStatus{
			Status:  provider.StatusUnavailable,
			Message: fmt.Sprintf("sidecar health returned %d", resp.StatusCode),
			Details: details,
		}
	}
}

// Execute uploads the audio file to POST /transcribe and returns the segments.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	audioData, err := afero.ReadFile(p.cfg.Fs, req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	fields := map[string]string{
		"model":           model,
		"beam_size":       strconv.Itoa(req.BeamSize),
		"vad_filter":      strconv.FormatBool(req.VADFilter),
		"word_timestamps": strconv.FormatBool(req.WordTimestamps),
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	if p.cfg.Device != "" {
		fields["device"] = p.cfg.Device
	}
	if p.cfg.ComputeType != "" {
		fields["compute_type"] = p.cfg.ComputeType
	}
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	writer.Close()

	body, contentType := buf.Bytes(), writer.FormDataContentType()
	result, err := resilience.Retry(ctx, p.retryConfig(), func() (*whisperResponse, error) {
		return p.post(ctx, body, contentType)
	})
	if err != nil {
		var te *transientError
		if errors.As(err, &te) {
			return nil, apperrors.ExternalServiceError("whisper sidecar", te.err)
		}
		return nil, err
	}

	return toResponse(result), nil
}

func (p *Provider) post(ctx context.Context, body []byte, contentType string) (*whisperResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, &transientError{errBusy}
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.ExternalServiceError("whisper sidecar",
			fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	var result whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}
	return &result, nil
}

// retryConfig retries transport failures and 503s. Other statuses and
// decode errors are final.
func (p *Provider) retryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    max(p.cfg.Retries, 0) + 1,
		InitialBackoff: p.cfg.Backoff,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2,
		Jitter:         0.1,
		RetryIf: func(err error) bool {
			var te *transientError
			return errors.As(err, &te)
		},
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			logger.Get("whisper").Warn("sidecar request failed, retrying", logger.Fields(
				"attempt", attempt,
				logger.FieldError, err.Error(),
				"backoff_ms", backoff.Milliseconds(),
			))
		},
	}
}

// --- internal sidecar response types ---

type whisperResponse struct {
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toResponse(resp *whisperResponse) *transcription.Response {
	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
	}

	duration := resp.Duration
	if duration == 0 && len(resp.Segments) > 0 {
		duration = resp.Segments[len(resp.Segments)-1].End
	}

	return &transcription.Response{
		Segments: segments,
		Duration: duration,
		Language: resp.Language,
	}
}
