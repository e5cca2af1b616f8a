// Package observability wires OpenTelemetry tracing and metrics for tool jobs.
//
// Telemetry is off by default. Setup installs OTLP/HTTP exporters only when
// enabled; otherwise spans and instruments go to the global no-op providers.
//
//	metrics, shutdown, err := observability.Setup(ctx, cfg.Telemetry, res)
//	defer shutdown(ctx)
//
//	ctx, job := observability.StartJob(ctx, metrics, "transcribe_url", id)
//	ctx, end := job.Stage(ctx, observability.SpanDownload)
//	end(err)
//	job.End(ctx, err)
package observability
