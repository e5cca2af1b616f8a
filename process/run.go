package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

var (
	// ErrTimeout is wrapped by Run when the deadline expired before exit.
	ErrTimeout = errors.New("process: timed out")
	// ErrNotFound is wrapped by Run when the binary cannot be resolved.
	ErrNotFound = errors.New("process: executable not found")
)

// Run executes a subprocess and waits for it to complete. On timeout or
// cancellation the whole process group gets SIGTERM, then SIGKILL after
// GracePeriod. A Result is returned whenever the process was attempted.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // callers build argv from validated config
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	// yt-dlp spawns ffmpeg; signal the whole group so nothing is orphaned.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return result, fmt.Errorf("%w: %s: %v", ErrNotFound, cmd.Binary, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		return result, fmt.Errorf("%w after %s: %s", ErrTimeout, result.Duration.Round(time.Millisecond), cmd.Binary)
	case ctx.Err() != nil:
		return result, fmt.Errorf("process: killed by context: %w", ctx.Err())
	default:
		return result, fmt.Errorf("process: %s exit code %d: %w", cmd.Binary, result.ExitCode, err)
	}
}

// LookPath resolves binary on PATH, or checks it directly when it contains a
// path separator.
func LookPath(binary string) (string, error) {
	p, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, binary)
	}
	return p, nil
}

// mergeEnv appends extra vars to the current environment. Nil inherits it.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}
