package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/video-transcribe-mcp/errors"
)

// Job tracks the span and metrics of one tool job. A nil Metrics skips
// metric recording.
type Job struct {
	ID      string
	Tool    string
	Start   time.Time
	Metrics *Metrics

	span trace.Span
}

// StartJob opens the job span and counts the job as active.
func StartJob(ctx context.Context, metrics *Metrics, tool, id string) (context.Context, *Job) {
	ctx, span := StartSpan(ctx, SpanJob, trace.WithAttributes(
		attribute.String(AttrTool, tool),
		attribute.String(AttrJobID, id),
	))
	if metrics != nil {
		metrics.RecordJobStart(ctx)
	}
	return ctx, &Job{ID: id, Tool: tool, Start: time.Now(), Metrics: metrics, span: span}
}

// Stage opens a child span for one pipeline stage. The returned func ends it
// and records the stage duration.
func (j *Job) Stage(ctx context.Context, name string) (context.Context, func(err error)) {
	ctx, span := StartSpan(ctx, name)
	start := time.Now()
	return ctx, func(err error) {
		status := Status(err)
		finish(span, err, status)
		if j.Metrics != nil {
			j.Metrics.RecordOperation(ctx, "pipeline", name, status, time.Since(start))
		}
	}
}

// End closes the job span and records the job outcome.
func (j *Job) End(ctx context.Context, err error) {
	status := Status(err)
	j.span.SetAttributes(attribute.Int64(AttrDurationMs, j.Duration().Milliseconds()))
	finish(j.span, err, status)
	if j.Metrics != nil {
		if err != nil {
			j.Metrics.RecordError(ctx, status, j.Tool)
		}
		j.Metrics.RecordJobEnd(ctx, j.Tool, status, j.Duration())
	}
}

// Duration returns the elapsed time since the job started.
func (j *Job) Duration() time.Duration {
	return time.Since(j.Start)
}

// Status labels an outcome: "ok", the AppError code, or INTERNAL_ERROR.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(apperrors.ErrCodeInternal)
}

func finish(span trace.Span, err error, status string) {
	span.SetAttributes(attribute.String(AttrStatus, status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorCode, status))
	}
	span.End()
}
