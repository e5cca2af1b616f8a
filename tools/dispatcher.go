// Package tools maps tool names and JSON arguments to transcription jobs
// and renders their results. Both transports dispatch through it.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
	"github.com/kbukum/video-transcribe-mcp/logger"
	"github.com/kbukum/video-transcribe-mcp/observability"
	"github.com/kbukum/video-transcribe-mcp/transcriber"
	"github.com/kbukum/video-transcribe-mcp/transcript"
	"github.com/kbukum/video-transcribe-mcp/validation"
)

// Jobs runs transcription jobs.
type Jobs interface {
	TranscribeURL(ctx context.Context, job transcriber.URLJob) (*transcriber.URLResult, error)
	TranscribeFile(ctx context.Context, job transcriber.FileJob) (*transcriber.FileResult, error)
}

// Lister lists saved transcripts.
type Lister interface {
	Dir() string
	List(limit int) ([]transcript.Entry, error)
}

// ListArgs are the list_transcripts arguments. A nil Limit means
// DefaultListLimit; zero lists nothing.
type ListArgs struct {
	Limit *int `json:"limit,omitempty" validate:"omitempty,gte=0"`
}

// ListResult is the list_transcripts payload.
type ListResult struct {
	TranscriptsDir string             `json:"transcripts_dir"`
	Count          int                `json:"count"`
	Files          []transcript.Entry `json:"files"`
}

// Result is the outcome of one tool call. Exactly one of Payload and Err
// is meaningful; Render turns either into the response text.
type Result struct {
	Tool    string
	Payload any
	Err     error
}

// IsError reports whether the call failed.
func (r Result) IsError() bool { return r.Err != nil }

// Body returns the value to encode: the payload, or {"error": message}.
func (r Result) Body() any {
	if r.Err != nil {
		return apperrors.ResultFrom(r.Err)
	}
	return r.Payload
}

type handler func(ctx context.Context, args json.RawMessage) (any, error)

// Dispatcher routes tool calls to handlers.
type Dispatcher struct {
	handlers map[string]handler
	metrics  *observability.Metrics
	log      *logger.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records per-call metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher wires the three tools to jobs and lister.
func NewDispatcher(jobs Jobs, lister Lister, opts ...Option) *Dispatcher {
	d := &Dispatcher{log: logger.Get("tools")}
	d.handlers = map[string]handler{
		NameTranscribeURL: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var job transcriber.URLJob
			if err := decode(raw, &job); err != nil {
				return nil, err
			}
			return jobs.TranscribeURL(ctx, job)
		},
		NameTranscribeFile: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var job transcriber.FileJob
			if err := decode(raw, &job); err != nil {
				return nil, err
			}
			return jobs.TranscribeFile(ctx, job)
		},
		NameListTranscripts: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args ListArgs
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			limit := DefaultListLimit
			if args.Limit != nil {
				limit = *args.Limit
			}
			files, err := lister.List(limit)
			if err != nil {
				return nil, err
			}
			return ListResult{TranscriptsDir: lister.Dir(), Count: len(files), Files: files}, nil
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Has reports whether name is a registered tool.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Call runs the named tool. It never returns an error or panics: every
// failure ends up in Result.Err.
func (d *Dispatcher) Call(ctx context.Context, name string, args json.RawMessage) (res Result) {
	res.Tool = name
	ctx = logger.ContextWithTool(ctx, name)
	ctx, span := observability.StartSpan(ctx, observability.SpanToolCall)
	observability.SetSpanAttribute(ctx, observability.AttrTool, name)
	start := time.Now()
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			d.log.WithContext(ctx).Error("tool handler panicked", logger.Fields(
				logger.FieldError, fmt.Sprint(r),
				"stack", string(debug.Stack()),
			))
			res.Payload, res.Err = nil, apperrors.Internal(fmt.Errorf("%v", r))
		}
		d.finish(ctx, res, time.Since(start))
	}()

	h, ok := d.handlers[name]
	if !ok {
		res.Err = apperrors.UnknownTool(name)
		return res
	}
	res.Payload, res.Err = h(ctx, args)
	return res
}

func (d *Dispatcher) finish(ctx context.Context, res Result, elapsed time.Duration) {
	status := observability.Status(res.Err)
	if res.Err != nil {
		observability.SetSpanError(ctx, res.Err)
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, status)
		d.log.WithContext(ctx).Warn("tool call failed", logger.Fields(
			logger.FieldError, res.Err.Error(),
			logger.FieldDuration, elapsed.Milliseconds(),
		))
	} else {
		d.log.WithContext(ctx).Debug("tool call finished", logger.Fields(
			logger.FieldDuration, elapsed.Milliseconds(),
		))
	}
	if d.metrics != nil {
		d.metrics.RecordOperation(ctx, "tools", res.Tool, status, elapsed)
	}
}

// decode unmarshals a tool's arguments object and validates it. Missing or
// null arguments decode to the zero value.
func decode(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return apperrors.InvalidInput("arguments", err.Error())
		}
	}
	return validation.Validate(dst)
}

// Render encodes a result as two-space indented JSON. Non-ASCII text and
// HTML characters are written as is.
func Render(res Result) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Body()); err != nil {
		return "", fmt.Errorf("render %s result: %w", res.Tool, err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
