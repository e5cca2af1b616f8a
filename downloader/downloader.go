// Package downloader wraps yt-dlp: a best-effort metadata probe and audio
// extraction to a local mp3.
package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbukum/video-transcribe-mcp/component"
	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/process"
	"github.com/kbukum/video-transcribe-mcp/provider"
)

// Unknown is the placeholder for metadata the probe could not supply.
const Unknown = "Unknown"

// Metadata is what the probe learns about a video.
type Metadata struct {
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration"`
	Uploader        string `json:"uploader"`
}

// DefaultMetadata is returned when the probe fails.
func DefaultMetadata() Metadata {
	return Metadata{Title: Unknown, DurationSeconds: 0, Uploader: Unknown}
}

// Outcome describes one yt-dlp run.
type Outcome struct {
	// Err is the spawn, timeout or exit error. Nil on success.
	Err error
	// ExitCode is the process exit code, -1 if it never exited normally.
	ExitCode int
	// Stderr is the last non-empty stderr line.
	Stderr string
	// TimedOut is set when the run hit its deadline.
	TimedOut bool
	// Duration is how long the run took.
	Duration time.Duration
}

// OK reports whether yt-dlp exited 0.
func (o Outcome) OK() bool {
	return o.Err == nil && o.ExitCode == 0
}

// Fields returns log fields describing the outcome.
func (o Outcome) Fields() map[string]interface{} {
	f := logger.DurationFields("yt-dlp", o.Duration)
	f["exit_code"] = o.ExitCode
	f["timed_out"] = o.TimedOut
	if o.Stderr != "" {
		f["stderr"] = o.Stderr
	}
	if o.Err != nil {
		f[logger.FieldError] = o.Err.Error()
	}
	return f
}

// Runner executes commands. process.Adapter is the production runner.
type Runner = provider.RequestResponse[process.Command, *process.Result]

// Client runs yt-dlp.
type Client struct {
	cfg    Config
	runner Runner
	ytdlp  provider.RequestResponse[invocation, runOutcome]
	log    *logger.Logger
}

var (
	_ component.Component   = (*Client)(nil)
	_ component.Describable = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// New creates a client. cfg defaults are applied.
func New(cfg Config, opts ...Option) *Client {
	cfg.ApplyDefaults()
	c := &Client{
		cfg: cfg,
		runner: process.NewAdapter(process.Config{
			Name:        "yt-dlp",
			Binary:      cfg.Binary,
			GracePeriod: cfg.GracePeriod,
		}),
		log: logger.Get("downloader"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ytdlp = provider.Adapt(c.runner, "yt-dlp", c.command, interpret)
	return c
}

// ProbeArgs returns the yt-dlp arguments for a metadata probe.
func ProbeArgs(url string) []string {
	return []string{"--dump-json", "--no-download", url}
}

// AcquireArgs returns the yt-dlp arguments that extract audio from url to dest.
func AcquireArgs(url, dest string) []string {
	return []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"-o", dest,
		"--no-playlist",
		"--no-warnings",
		url,
	}
}

// Probe fetches video metadata. It never fails: any problem yields
// DefaultMetadata and a not-OK Outcome. Missing fields default individually.
func (c *Client) Probe(ctx context.Context, url string) (Metadata, Outcome) {
	out := c.run(ctx, ProbeArgs(url), c.cfg.ProbeTimeout)
	if !out.OK() {
		c.log.WithContext(ctx).Warn("metadata probe failed, using defaults", out.Fields())
		return DefaultMetadata(), out.Outcome
	}

	var raw struct {
		Title    *string  `json:"title"`
		Duration *float64 `json:"duration"`
		Uploader *string  `json:"uploader"`
	}
	if err := json.Unmarshal(out.stdout, &raw); err != nil {
		out.Err = fmt.Errorf("decode probe output: %w", err)
		c.log.WithContext(ctx).Warn("metadata probe output unreadable, using defaults", out.Fields())
		return DefaultMetadata(), out.Outcome
	}

	md := DefaultMetadata()
	if raw.Title != nil {
		md.Title = *raw.Title
	}
	if raw.Duration != nil && *raw.Duration > 0 {
		md.DurationSeconds = int(*raw.Duration)
	}
	if raw.Uploader != nil {
		md.Uploader = *raw.Uploader
	}
	c.log.WithContext(ctx).Debug("metadata probed", logger.Fields(
		"title", md.Title,
		"duration", md.DurationSeconds,
		"uploader", md.Uploader,
	))
	return md, out.Outcome
}

// Acquire extracts the audio of url to dest. yt-dlp may change the
// extension, so callers locate the artifact by prefix afterwards.
func (c *Client) Acquire(ctx context.Context, url, dest string) Outcome {
	out := c.run(ctx, AcquireArgs(url, dest), c.cfg.DownloadTimeout)
	if out.OK() {
		c.log.WithContext(ctx).Info("audio downloaded", out.Fields())
	} else {
		c.log.WithContext(ctx).Warn("audio download failed", out.Fields())
	}
	return out.Outcome
}

type invocation struct {
	args    []string
	timeout time.Duration
}

type runOutcome struct {
	Outcome
	stdout []byte
}

func (c *Client) command(_ context.Context, in invocation) (process.Command, error) {
	return process.Command{Binary: c.cfg.Binary, Args: in.args, Timeout: in.timeout}, nil
}

// interpret folds the process result and error into an Outcome. It never
// fails: callers inspect Outcome.Err.
func interpret(res *process.Result, err error) (runOutcome, error) {
	out := runOutcome{Outcome: Outcome{Err: err, ExitCode: -1}}
	if res != nil {
		out.ExitCode = res.ExitCode
		out.TimedOut = res.TimedOut
		out.Duration = res.Duration
		out.Stderr = process.LastLine(res.Stderr)
		out.stdout = res.Stdout
	}
	if err == nil && out.ExitCode != 0 {
		out.Err = fmt.Errorf("yt-dlp exit code %d", out.ExitCode)
	}
	return out, nil
}

func (c *Client) run(ctx context.Context, args []string, timeout time.Duration) runOutcome {
	out, _ := c.ytdlp.Execute(ctx, invocation{args: args, timeout: timeout})
	return out
}

// Name implements component.Component.
func (c *Client) Name() string { return "downloader" }

// Start logs whether yt-dlp is installed. A missing binary is not fatal:
// transcribe_file and list_transcripts do not need it.
func (c *Client) Start(ctx context.Context) error {
	path, err := process.LookPath(c.cfg.Binary)
	if err != nil {
		c.log.Warn("yt-dlp not found on PATH; transcribe_url will fail", logger.Fields("binary", c.cfg.Binary))
		return nil
	}
	c.log.Info("yt-dlp found", logger.Fields(logger.FieldPath, path))
	return nil
}

// Stop implements component.Component.
func (c *Client) Stop(ctx context.Context) error { return nil }

// Health reports whether the yt-dlp binary resolves.
func (c *Client) Health(ctx context.Context) component.Health {
	if !c.runner.IsAvailable(ctx) {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: c.cfg.Binary + " not found on PATH",
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (c *Client) Describe() component.Description {
	return component.Description{
		Name:    "Downloader",
		Type:    "downloader",
		Details: fmt.Sprintf("%s probe=%s download=%s", c.cfg.Binary, c.cfg.ProbeTimeout, c.cfg.DownloadTimeout),
	}
}
