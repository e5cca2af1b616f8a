package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ErrSessionClosed is wrapped by Session methods once the process is gone.
var ErrSessionClosed = errors.New("process: session closed")

const stderrTail = 4 << 10

// Session is a long-running subprocess that answers each line written to
// its stdin with one line on stdout. Exchanges are serialized.
type Session struct {
	binary string
	grace  time.Duration
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer

	lines  chan []byte
	exited chan struct{}
	stop   chan struct{}

	mu        sync.Mutex
	waitErr   error
	closeOnce sync.Once
	closeErr  error
}

// StartSession launches cmd and starts reading its stdout line by line.
// Command.Timeout and Command.Stdin do not apply: each exchange is bounded
// by its own context and stdin belongs to the session.
func StartSession(cmd Command) (*Session, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}
	grace := cmd.GracePeriod
	if grace == 0 {
		grace = 5 * time.Second
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // callers build argv from validated config
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.WaitDelay = grace

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdin pipe: %w", err)
	}
	// A plain pipe keeps Wait from closing stdout under the reader.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdout pipe: %w", err)
	}
	c.Stdout = pw

	s := &Session{
		binary: cmd.Binary,
		grace:  grace,
		cmd:    c,
		stdin:  stdin,
		stderr: &tailBuffer{},
		lines:  make(chan []byte),
		exited: make(chan struct{}),
		stop:   make(chan struct{}),
	}
	c.Stderr = s.stderr

	if err := c.Start(); err != nil {
		pr.Close()
		pw.Close()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, cmd.Binary, err)
		}
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	pw.Close()

	go s.read(pr)
	go func() {
		s.waitErr = c.Wait()
		close(s.exited)
	}()
	return s, nil
}

func (s *Session) read(r *os.File) {
	defer close(s.lines)
	defer r.Close()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if line = bytes.TrimRight(line, "\r\n"); len(bytes.TrimSpace(line)) > 0 {
			select {
			case s.lines <- line:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// ReadLine waits for the next stdout line, e.g. a readiness banner.
func (s *Session) ReadLine(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next(ctx)
}

// Exchange writes line to stdin and returns the next stdout line. After a
// context error the session is out of step and should be closed.
func (s *Session) Exchange(ctx context.Context, line []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Alive() {
		return nil, s.exitError()
	}
	msg := make([]byte, 0, len(line)+1)
	msg = append(append(msg, bytes.TrimRight(line, "\n")...), '\n')
	if _, err := s.stdin.Write(msg); err != nil {
		return nil, fmt.Errorf("%w: write to %s: %v", ErrSessionClosed, s.binary, err)
	}
	return s.next(ctx)
}

func (s *Session) next(ctx context.Context) ([]byte, error) {
	select {
	case line, ok := <-s.lines:
		if !ok {
			return nil, s.exitError()
		}
		return line, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("process: %s: %w", s.binary, ctx.Err())
	}
}

func (s *Session) exitError() error {
	select {
	case <-s.exited:
		if s.waitErr != nil {
			return fmt.Errorf("%w: %s: %v", ErrSessionClosed, s.binary, s.waitErr)
		}
	case <-time.After(s.grace):
	}
	return fmt.Errorf("%w: %s", ErrSessionClosed, s.binary)
}

// Alive reports whether the process is still running.
func (s *Session) Alive() bool {
	select {
	case <-s.exited:
		return false
	default:
		return true
	}
}

// Stderr returns the last non-empty line the process wrote to stderr.
func (s *Session) Stderr() string {
	return LastLine(s.stderr.Bytes())
}

// Close ends stdin so the process can exit on its own. A process group that
// is still running after the grace period gets SIGTERM, then SIGKILL.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.stdin.Close()
		if s.waitFor(s.grace) {
			return
		}
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGTERM)
		if s.waitFor(s.grace) {
			return
		}
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGKILL)
		<-s.exited
		s.closeErr = fmt.Errorf("process: %s ignored SIGTERM and was killed", s.binary)
	})
	return s.closeErr
}

func (s *Session) waitFor(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.exited:
		return true
	case <-timer.C:
		return false
	}
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if n := len(t.buf); n > stderrTail {
		t.buf = append([]byte(nil), t.buf[n-stderrTail:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.buf...)
}
