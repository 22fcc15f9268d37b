package maintenance

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockRebuilder struct {
	size  int
	calls atomic.Int64
}

func (m *mockRebuilder) Rebuild() int {
	m.calls.Add(1)
	return m.size
}

func TestRebuild(t *testing.T) {
	rb := &mockRebuilder{size: 42}
	svc := New(rb, 0, zap.NewNop())

	if got := svc.Rebuild(context.Background()); got != 42 {
		t.Errorf("Rebuild returned %d, want 42", got)
	}
	if rb.calls.Load() != 1 {
		t.Errorf("expected 1 rebuild call, got %d", rb.calls.Load())
	}
}

func TestTrigger_ThroughRunningLoop(t *testing.T) {
	rb := &mockRebuilder{size: 7}
	svc := New(rb, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	size, err := svc.Trigger(ctx)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if size != 7 {
		t.Errorf("Trigger returned %d, want 7", size)
	}
}

func TestTrigger_CanceledContext(t *testing.T) {
	svc := New(&mockRebuilder{}, 0, zap.NewNop())

	// No loop running; a canceled context must not hang.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Trigger(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestRun_PeriodicRebuilds(t *testing.T) {
	rb := &mockRebuilder{}
	svc := New(rb, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	deadline := time.After(2 * time.Second)
	for rb.calls.Load() < 2 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("expected at least 2 periodic rebuilds, got %d", rb.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
}
