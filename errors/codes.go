package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline errors surfaced by transcription jobs.
const (
	// ErrCodeDownloadFailed indicates the downloader did not produce audio.
	ErrCodeDownloadFailed ErrorCode = "DOWNLOAD_FAILED"
	// ErrCodeArtifactMissing indicates the download succeeded but no audio file was found.
	ErrCodeArtifactMissing ErrorCode = "ARTIFACT_MISSING"
	// ErrCodeNoSpeech indicates transcription produced zero segments.
	ErrCodeNoSpeech ErrorCode = "NO_SPEECH_DETECTED"
	// ErrCodeFileNotFound indicates a local file job referenced a missing path.
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
)

// Dispatch errors
const (
	// ErrCodeUnknownTool indicates the requested tool is not registered.
	ErrCodeUnknownTool ErrorCode = "UNKNOWN_TOOL"
)

// Availability errors
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// retryableCodes marks codes a caller may resubmit unchanged. The pipeline
// itself never retries.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeExternalService:    true,
	ErrCodeDownloadFailed:     true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
