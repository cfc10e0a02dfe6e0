package ffmpeg

import (
	"context"
	"sync"
)

// ---------------------------------------------------------------------------
// Executor - testable FFmpeg execution with dependency injection
// ---------------------------------------------------------------------------

// Executor runs FFmpeg commands with injectable dependencies.
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRun sets a custom run function (for testing).
func WithRun(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		run: defaultRun,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes FFmpeg and returns its combined output.
// FFmpeg writes its diagnostics to stderr, so the output is useful even on failure.
func (e *Executor) Run(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	out, err := e.run(ctx, ffmpegPath, args)
	return string(out), err
}

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

// getDefaultExecutor returns the lazily-initialized default executor.
func getDefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}
