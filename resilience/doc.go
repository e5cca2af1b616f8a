// Package resilience provides the concurrency limit for transcription jobs
// and retry with exponential backoff for remote backends.
//
//	jobs := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "jobs", MaxConcurrent: 1})
//	err := jobs.Execute(ctx, func() error { return run(ctx) })
//
//	resp, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*Response, error) {
//	    return post(ctx)
//	})
package resilience
