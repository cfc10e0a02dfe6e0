package interrupt_test

// Tests inject a signal channel and a clock through NewHandlerWithOptions.
// The draining channel and context are used to confirm each signal was processed.

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/adiclip/internal/interrupt"
)

// syncBuffer is a thread-safe bytes.Buffer for testing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Contains(substr string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Contains(b.buf.Bytes(), []byte(substr))
}

// stepClock returns times from a script, repeating the last one.
func stepClock(offsets ...time.Duration) func() time.Time {
	var mu sync.Mutex
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		d := offsets[min(i, len(offsets)-1)]
		i++
		return base.Add(d)
	}
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("%s not closed", what)
	}
}

func waitPhase(t *testing.T, h *interrupt.Handler, want interrupt.Phase) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.Phase() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Phase() = %s, want %s", h.Phase(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ---------------------------------------------------------------------------
// TestNewHandler - Default constructor
// ---------------------------------------------------------------------------

func TestNewHandler(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandler(context.Background())
	if h == nil || ctx == nil {
		t.Fatal("NewHandler returned nil")
	}

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled before any signal")
	case <-h.Draining():
		t.Fatal("draining should not be closed before any signal")
	default:
	}
	if got := h.Phase(); got != interrupt.Running {
		t.Errorf("Phase() = %v before any signal, want Running", got)
	}

	h.Stop()
	h.Stop() // idempotent
}

// ---------------------------------------------------------------------------
// TestHandler_FirstInterrupt - Single signal drains without canceling
// ---------------------------------------------------------------------------

func TestHandler_FirstInterrupt(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:  sigCh,
		Stderr: &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitClosed(t, h.Draining(), "draining")

	if ctx.Err() != nil {
		t.Error("context should stay live while draining")
	}
	if h.Phase() != interrupt.Draining {
		t.Errorf("Phase() = %s, want Draining", h.Phase())
	}
	if !stderr.Contains("finishing in-flight videos") {
		t.Errorf("stderr = %q, want drain message", stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestHandler_DoubleInterruptWithinWindow - Cancels the context
// ---------------------------------------------------------------------------

func TestHandler_DoubleInterruptWithinWindow(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	var exitCalled atomic.Bool
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(int) { exitCalled.Store(true) },
		NowFunc:  stepClock(0, time.Second),
		Stderr:   &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitClosed(t, h.Draining(), "draining")
	sigCh <- os.Interrupt
	waitClosed(t, ctx.Done(), "context")

	if h.Phase() != interrupt.Aborting {
		t.Errorf("Phase() = %s, want Aborting", h.Phase())
	}
	if exitCalled.Load() {
		t.Error("exitFunc should not be called on second signal")
	}
	if !stderr.Contains("Aborting in-flight work.") {
		t.Errorf("stderr = %q, want abort message", stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestHandler_DoubleInterruptOutsideWindow - Re-arms instead of aborting
// ---------------------------------------------------------------------------

func TestHandler_DoubleInterruptOutsideWindow(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	// T=0 first, T=3s second (outside window, re-arms), T=4s third (within new window).
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:   sigCh,
		NowFunc: stepClock(0, 3*time.Second, 4*time.Second),
		Stderr:  &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitClosed(t, h.Draining(), "draining")
	sigCh <- os.Interrupt
	time.Sleep(50 * time.Millisecond)

	if ctx.Err() != nil {
		t.Fatal("context should not be canceled when second signal is outside window")
	}
	if h.Phase() != interrupt.Draining {
		t.Errorf("Phase() = %s, want Draining", h.Phase())
	}

	sigCh <- os.Interrupt
	waitClosed(t, ctx.Done(), "context")
	waitPhase(t, h, interrupt.Aborting)
}

// ---------------------------------------------------------------------------
// TestHandler_ThirdInterrupt - Exits immediately
// ---------------------------------------------------------------------------

func TestHandler_ThirdInterrupt(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 3)
	var stderr syncBuffer
	var exitCode atomic.Int32
	exitCode.Store(-1)
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(code int) { exitCode.Store(int32(code)) },
		NowFunc:  stepClock(0),
		Stderr:   &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	sigCh <- os.Interrupt
	waitClosed(t, ctx.Done(), "context")
	sigCh <- os.Interrupt

	deadline := time.After(time.Second)
	for exitCode.Load() == -1 {
		select {
		case <-deadline:
			t.Fatal("exitFunc should have been called")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	if got := exitCode.Load(); got != interrupt.ExitInterrupt {
		t.Errorf("exit code = %d, want %d", got, interrupt.ExitInterrupt)
	}
	if !stderr.Contains("Aborted.") {
		t.Errorf("stderr = %q, want exit message", stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestHandler_Stop - Signals after Stop are ignored
// ---------------------------------------------------------------------------

func TestHandler_Stop(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:  sigCh,
		Stderr: &syncBuffer{},
	})
	h.Stop()

	select {
	case sigCh <- os.Interrupt:
	default:
	}
	time.Sleep(20 * time.Millisecond)

	if got := h.Phase(); got != interrupt.Running {
		t.Errorf("Phase() = %v after Stop, want Running", got)
	}
}

func TestHandler_ParentCancel(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	h, ctx := interrupt.NewHandlerWithOptions(parent, interrupt.Options{Stderr: &syncBuffer{}})
	defer h.Stop()

	cancel()
	waitClosed(t, ctx.Done(), "context")
}

func TestPhase_String(t *testing.T) {
	t.Parallel()

	tests := map[interrupt.Phase]string{
		interrupt.Running:  "Running",
		interrupt.Draining: "Draining",
		interrupt.Aborting: "Aborting",
		interrupt.Phase(9): "Phase(9)",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
