package errors

import (
	stderrors "errors"
)

// ErrorResult is the tool-level failure shape: {"error": "<message>"}.
type ErrorResult struct {
	Error string `json:"error"`
}

// ToResult converts an AppError to the tool-level failure shape.
func (e *AppError) ToResult() ErrorResult {
	return ErrorResult{Error: e.Message}
}

// ResultFrom converts any error to the tool-level failure shape. AppErrors
// surface their message; other errors surface their full text.
func ResultFrom(err error) ErrorResult {
	if appErr, ok := AsAppError(err); ok {
		return appErr.ToResult()
	}
	return ErrorResult{Error: err.Error()}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
