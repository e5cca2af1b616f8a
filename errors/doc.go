// Package errors provides the structured error type used across the
// transcription pipeline. Every failure that reaches a tool caller is an
// AppError carrying a machine-readable code and a human-readable message;
// the message is what the caller sees in the {"error": ...} result.
package errors
