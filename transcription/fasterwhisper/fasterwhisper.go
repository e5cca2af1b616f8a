// Package fasterwhisper runs faster-whisper through an embedded Python
// helper. Init starts the helper, which loads the model once and then
// answers one JSON request per stdin line until Close.
package fasterwhisper

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/process"
	"github.com/kbukum/video-transcribe-mcp/provider"
	"github.com/kbukum/video-transcribe-mcp/transcription"
)

// ProviderName is the registered name for this backend.
const ProviderName = transcription.BackendFasterWhisper

const defaultLoadTimeout = 10 * time.Minute

//go:embed helper.py
var helperScript []byte

// Config holds configuration for the faster-whisper backend.
type Config struct {
	Python      string
	Model       string
	Device      string
	ComputeType string
	BeamSize    int
	// LoadTimeout bounds helper startup, model download included.
	LoadTimeout time.Duration
	// Fs is where the helper script is written. Defaults to the OS filesystem.
	Fs afero.Fs
}

// Provider implements transcription.Provider on a resident helper process.
// Request.Model is ignored: the helper serves the model it loaded.
type Provider struct {
	cfg Config
	log *logger.Logger

	// jobMu serializes jobs; mu guards the fields below.
	jobMu      sync.Mutex
	mu         sync.Mutex
	scriptPath string
	session    *process.Session
}

var (
	_ transcription.Provider = (*Provider)(nil)
	_ provider.Initializable = (*Provider)(nil)
	_ provider.Closeable     = (*Provider)(nil)
	_ provider.HealthChecker = (*Provider)(nil)
)

// NewProvider creates a backend. Init must run before Execute.
func NewProvider(cfg Config) *Provider {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Model == "" {
		cfg.Model = "large-v3"
	}
	if cfg.Device == "" {
		cfg.Device = "auto"
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = "auto"
	}
	if cfg.BeamSize == 0 {
		cfg.BeamSize = 5
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaultLoadTimeout
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	return &Provider{cfg: cfg, log: logger.Get("faster-whisper")}
}

// Factory returns a provider.Factory that creates faster-whisper backends
// from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		c := Config{}
		if v, ok := cfg["python"].(string); ok {
			c.Python = v
		}
		if v, ok := cfg["model"].(string); ok {
			c.Model = v
		}
		if v, ok := cfg["device"].(string); ok {
			c.Device = v
		}
		if v, ok := cfg["compute_type"].(string); ok {
			c.ComputeType = v
		}
		if v, ok := cfg["beam_size"].(int); ok {
			c.BeamSize = v
		}
		if v, ok := cfg["load_timeout"].(time.Duration); ok {
			c.LoadTimeout = v
		}
		if v, ok := cfg["fs"].(afero.Fs); ok {
			c.Fs = v
		}
		return NewProvider(c), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the interpreter resolves on PATH.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := process.LookPath(p.cfg.Python)
	return err == nil
}

// Health reports a missing interpreter as unavailable and an exited helper
// as degraded; the next job restarts it.
func (p *Provider) Health(ctx context.Context) provider.HealthStatus {
	details := map[string]any{"model": p.cfg.Model, "device": p.cfg.Device}
	if !p.IsAvailable(ctx) {
		return provider.HealthStatus{
			Status:  provider.StatusUnavailable,
			Message: p.cfg.Python + " not found on PATH",
			Details: details,
		}
	}
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()
	if s != nil && !s.Alive() {
		return provider.HealthStatus{
			Status:  provider.StatusDegraded,
			Message: "faster-whisper helper exited: " + s.Stderr(),
			Details: details,
		}
	}
	return provider.HealthStatus{Status: provider.StatusHealthy, Details: details}
}

// Init writes the helper script, starts it and waits until the model is
// loaded.
func (p *Provider) Init(ctx context.Context) error {
	if _, err := process.LookPath(p.cfg.Python); err != nil {
		return fmt.Errorf("faster-whisper backend: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		return nil
	}
	if p.scriptPath == "" {
		path, err := p.writeScript()
		if err != nil {
			return err
		}
		p.scriptPath = path
	}
	if err := p.startHelper(ctx); err != nil {
		_ = p.cfg.Fs.Remove(p.scriptPath)
		p.scriptPath = ""
		return err
	}
	return nil
}

func (p *Provider) writeScript() (string, error) {
	f, err := afero.TempFile(p.cfg.Fs, "", "vtm-faster-whisper-*.py")
	if err != nil {
		return "", fmt.Errorf("create helper script: %w", err)
	}
	if _, err := f.Write(helperScript); err != nil {
		f.Close()
		return "", fmt.Errorf("write helper script: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write helper script: %w", err)
	}
	return f.Name(), nil
}

// startHelper launches the helper and waits for its ready line. mu must be held.
func (p *Provider) startHelper(ctx context.Context) error {
	s, err := process.StartSession(process.Command{
		Binary: p.cfg.Python,
		Args:   append([]string{p.scriptPath}, helperArgs(p.cfg)...),
	})
	if err != nil {
		return fmt.Errorf("start faster-whisper helper: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.LoadTimeout)
	defer cancel()
	start := time.Now()
	line, err := s.ReadLine(ctx)
	if err == nil {
		var banner helperOutput
		if err = json.Unmarshal(line, &banner); err == nil && !banner.Ready {
			err = fmt.Errorf("unexpected banner %q", line)
			if banner.Error != "" {
				err = errors.New(banner.Error)
			}
		}
	}
	if err != nil {
		detail := s.Stderr()
		_ = s.Close()
		return fmt.Errorf("faster-whisper helper did not start: %s", strings.TrimSpace(err.Error()+" "+detail))
	}

	p.session = s
	p.log.Info("faster-whisper model loaded", logger.DurationFields("load", time.Since(start)), logger.Fields(
		"model", p.cfg.Model,
		"device", p.cfg.Device,
		"compute_type", p.cfg.ComputeType,
	))
	return nil
}

// Close stops the helper and removes its script.
func (p *Provider) Close(_ context.Context) error {
	p.mu.Lock()
	s, path := p.session, p.scriptPath
	p.session, p.scriptPath = nil, ""
	p.mu.Unlock()

	var errs []error
	if s != nil {
		errs = append(errs, s.Close())
	}
	if path != "" {
		errs = append(errs, p.cfg.Fs.Remove(path))
	}
	return errors.Join(errs...)
}

// Execute sends one job to the helper. A helper that has exited is
// restarted first; one that failed mid-job is closed.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	line, err := json.Marshal(newHelperRequest(p.cfg, req))
	if err != nil {
		return nil, err
	}

	p.jobMu.Lock()
	defer p.jobMu.Unlock()

	s, err := p.liveSession(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.Exchange(ctx, line)
	if err != nil {
		stderr := s.Stderr()
		p.drop(s)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Timeout(ProviderName).WithCause(err)
		}
		appErr := apperrors.ExternalServiceError(ProviderName, err)
		if stderr != "" {
			appErr.WithDetail("stderr", stderr)
		}
		return nil, appErr
	}
	return parseOutput(out)
}

func (p *Provider) liveSession(ctx context.Context) (*process.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scriptPath == "" {
		return nil, fmt.Errorf("faster-whisper backend is not initialized")
	}
	if p.session != nil && p.session.Alive() {
		return p.session, nil
	}
	if p.session != nil {
		p.log.Warn("faster-whisper helper exited, restarting", logger.Fields("stderr", p.session.Stderr()))
		_ = p.session.Close()
		p.session = nil
	}
	if err := p.startHelper(ctx); err != nil {
		return nil, apperrors.ExternalServiceError(ProviderName, err)
	}
	return p.session, nil
}

func (p *Provider) drop(s *process.Session) {
	p.mu.Lock()
	if p.session == s {
		p.session = nil
	}
	p.mu.Unlock()
	if err := s.Close(); err != nil {
		p.log.Warn("faster-whisper helper close failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

func helperArgs(cfg Config) []string {
	return []string{
		"--model", cfg.Model,
		"--device", cfg.Device,
		"--compute-type", cfg.ComputeType,
	}
}

type helperRequest struct {
	Audio          string `json:"audio"`
	Language       string `json:"language,omitempty"`
	BeamSize       int    `json:"beam_size"`
	VADFilter      bool   `json:"vad_filter"`
	WordTimestamps bool   `json:"word_timestamps"`
}

func newHelperRequest(cfg Config, req transcription.Request) helperRequest {
	beam := cfg.BeamSize
	if req.BeamSize > 0 {
		beam = req.BeamSize
	}
	return helperRequest{
		Audio:          req.AudioPath,
		Language:       req.Language,
		BeamSize:       beam,
		VADFilter:      req.VADFilter,
		WordTimestamps: req.WordTimestamps,
	}
}

type helperOutput struct {
	Ready    bool    `json:"ready"`
	Error    string  `json:"error"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseOutput(line []byte) (*transcription.Response, error) {
	var out helperOutput
	if err := json.Unmarshal(line, &out); err != nil {
		return nil, fmt.Errorf("parse helper output: %w", err)
	}
	if out.Error != "" {
		return nil, apperrors.ExternalServiceError(ProviderName, errors.New(out.Error))
	}
	resp := &transcription.Response{
		Language: out.Language,
		Duration: out.Duration,
		Segments: make([]transcription.Segment, 0, len(out.Segments)),
	}
	for _, s := range out.Segments {
		resp.Segments = append(resp.Segments, transcription.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return resp, nil
}
