package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Phase is how far shutdown has progressed.
type Phase int

const (
	// Running means no interrupt was received.
	Running Phase = iota
	// Draining means no new work is dispatched; in-flight work completes.
	Draining
	// Aborting means in-flight external processes are being killed.
	Aborting
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Aborting:
		return "Aborting"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// interruptWindow is the time window for a second Ctrl+C to trigger abort.
const interruptWindow = 2 * time.Second

const (
	drainMessage = "\nInterrupted: finishing in-flight videos. Press Ctrl+C again within 2s to abort them."
	abortMessage = "\nAborting in-flight work."
	exitMessage  = "\nAborted."
)

// Handler manages graceful interrupt handling with double Ctrl+C detection.
// First Ctrl+C closes the Draining channel: nothing new starts.
// Second Ctrl+C within the window cancels the context, killing tool processes.
// A further Ctrl+C while aborting exits immediately.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	phase          Phase
	stopped        bool
	draining       chan struct{}
	cancelFunc     context.CancelFunc
	done           chan struct{} // Signals listen goroutine to exit

	// Injected dependencies (for testing)
	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr is the writer for user-facing messages.
	// Must be safe for concurrent writes from multiple goroutines.
	Stderr io.Writer
}

// NewHandler creates a handler that listens for SIGINT/SIGTERM.
// The returned context is canceled when the user aborts.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return newHandler(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	return newHandler(parent, opts)
}

func newHandler(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	exitFunc := opts.ExitFunc
	if exitFunc == nil {
		exitFunc = os.Exit
	}
	nowFunc := opts.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	h := &Handler{
		draining:   make(chan struct{}),
		cancelFunc: cancel,
		done:       make(chan struct{}),
		exitFunc:   exitFunc,
		nowFunc:    nowFunc,
		stderr:     stderr,
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}

	return h, ctx
}

// listen handles incoming signals.
func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if exit := h.handle(); exit {
				fmt.Fprintln(h.stderr, exitMessage)
				h.exitFunc(ExitInterrupt)
				return // In case exitFunc doesn't actually exit (tests)
			}
		}
	}
}

// handle advances the phase for one signal and reports whether to exit now.
func (h *Handler) handle() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	now := h.nowFunc()

	switch h.phase {
	case Running:
		h.phase = Draining
		h.firstInterrupt = now
		close(h.draining)
		fmt.Fprintln(h.stderr, drainMessage)
	case Draining:
		if now.Sub(h.firstInterrupt) > interruptWindow {
			// Too late for a double press: re-arm the window.
			h.firstInterrupt = now
			fmt.Fprintln(h.stderr, drainMessage)
			return false
		}
		h.phase = Aborting
		h.cancelFunc()
		fmt.Fprintln(h.stderr, abortMessage)
	case Aborting:
		return true
	}
	return false
}

// Draining returns a channel closed on the first interrupt.
func (h *Handler) Draining() <-chan struct{} {
	return h.draining
}

// Phase returns the current shutdown phase.
func (h *Handler) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// Stop cleans up the handler. Should be called when done.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	h.cancelFunc()
	close(h.done)
}
