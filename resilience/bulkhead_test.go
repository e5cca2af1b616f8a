package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// hold occupies the bulkhead's only slot until the returned func is called.
func hold(t *testing.T, b *Bulkhead) func() {
	t.Helper()
	started := make(chan struct{})
	release := make(chan struct{})
	go b.Execute(context.Background(), func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	return func() { close(release) }
}

func TestBulkhead_DefaultsToOneSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "jobs"})
	if b.MaxConcurrent() != 1 {
		t.Errorf("expected 1 slot, got %d", b.MaxConcurrent())
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	var rejected error
	b := NewBulkhead(BulkheadConfig{
		Name:     "jobs",
		OnReject: func(name string, err error) { rejected = err },
	})
	done := hold(t, b)
	defer done()

	ran := false
	err := b.Execute(context.Background(), func() error { ran = true; return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("expected ErrBulkheadFull, got %v", err)
	}
	if ran {
		t.Error("rejected call must not run")
	}
	if !errors.Is(rejected, ErrBulkheadFull) {
		t.Errorf("OnReject got %v", rejected)
	}
	if b.InUse() != 1 {
		t.Errorf("expected 1 slot in use, got %d", b.InUse())
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "jobs", MaxWait: time.Second})
	done := hold(t, b)
	time.AfterFunc(20*time.Millisecond, done)

	if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("expected the waiting call to run, got %v", err)
	}
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "jobs", MaxWait: 10 * time.Millisecond})
	done := hold(t, b)
	defer done()

	if err := b.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrBulkheadTimeout) {
		t.Fatalf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkhead_ContextCancelled(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "jobs", MaxWait: time.Minute})
	done := hold(t, b)
	defer done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Execute(ctx, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBulkhead_ReleasesOnError(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "jobs"})
	boom := errors.New("no speech")
	if err := b.Execute(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if b.InUse() != 0 {
		t.Errorf("slot not released, %d in use", b.InUse())
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "jobs"})
	got, err := ExecuteWithResult(context.Background(), b, func() (string, error) { return "saved", nil })
	if err != nil || got != "saved" {
		t.Errorf("got %q, %v", got, err)
	}
}
