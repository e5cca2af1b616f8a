package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is the human-readable message returned to tool callers.
	Message string `json:"message"`
	// Retryable indicates if the caller may resubmit the job.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status used by the HTTP transport.
	HTTPStatus int `json:"-"`
	// Details contains additional context for logs.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Pipeline errors ---

// DownloadFailed reports that audio could not be fetched from url.
func DownloadFailed(url string) *AppError {
	return &AppError{
		Code: ErrCodeDownloadFailed, Message: fmt.Sprintf("Failed to download audio from %s. Make sure the video is public.", url),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"url": url},
	}
}

// ArtifactMissing reports that the downloader exited cleanly but left no audio file.
func ArtifactMissing() *AppError {
	return &AppError{
		Code: ErrCodeArtifactMissing, Message: "Audio file not found after download",
		HTTPStatus: http.StatusBadGateway, Retryable: false,
	}
}

// NoSpeech reports that the engine found no speech in the given kind of
// source ("video" or "file").
func NoSpeech(kind string) *AppError {
	return &AppError{
		Code: ErrCodeNoSpeech, Message: fmt.Sprintf("No speech detected in the %s", kind),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// FileNotFound reports a local file job whose path does not exist.
func FileNotFound(path string) *AppError {
	return &AppError{
		Code: ErrCodeFileNotFound, Message: fmt.Sprintf("File not found: %s", path),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"path": path},
	}
}

// UnknownTool reports a dispatch for a tool name that is not registered.
func UnknownTool(name string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownTool, Message: fmt.Sprintf("Unknown tool: %s", name),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"tool": name},
	}
}

// --- Common constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is busy with another job. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("The %s took too long.", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Internal creates a new AppError for an otherwise uncaught failure. The
// cause's text is what the caller sees.
func Internal(cause error) *AppError {
	msg := "An unexpected error occurred."
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Code: ErrCodeInternal, Message: msg,
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error: %v", service, cause),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}
