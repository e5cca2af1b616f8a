// Package transcription turns audio files into time-aligned text segments.
//
// Backends implement Provider and register a factory in a Registry; the
// Engine creates the configured backend on first use and keeps it for the
// life of the process. Two backends ship with the module:
//
//   - fasterwhisper keeps an embedded Python helper running that loads the
//     faster-whisper model once and serves one request per line.
//   - whisper talks to a faster-whisper HTTP sidecar that keeps the model
//     resident.
package transcription
