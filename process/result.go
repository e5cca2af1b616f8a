package process

import (
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code, -1 if it was killed or never started.
	ExitCode int
	// TimedOut is set when Command.Timeout or the caller's deadline expired.
	TimedOut bool
	// Duration is how long the process ran.
	Duration time.Duration
}

// OK reports a clean zero exit.
func (r *Result) OK() bool {
	return r != nil && r.ExitCode == 0 && !r.TimedOut
}

// LastLine returns the last non-empty line of b, trimmed.
func LastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
