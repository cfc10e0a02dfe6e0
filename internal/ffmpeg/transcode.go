package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Normalized clip parameters.
const (
	// SampleRate is the output sample rate in Hz.
	SampleRate = 16000

	// Channels is the output channel count (mono).
	Channels = 1
)

// maxOutputTail bounds the ffmpeg output kept in error messages.
const maxOutputTail = 2048

// Transcoder cuts normalized audio clips out of source videos.
type Transcoder struct {
	ffmpegPath string
	executor   *Executor
	timeout    time.Duration
}

// TranscoderOption configures a Transcoder.
type TranscoderOption func(*Transcoder)

// WithExecutor sets the executor (for testing).
func WithExecutor(e *Executor) TranscoderOption {
	return func(t *Transcoder) { t.executor = e }
}

// WithTimeout bounds each ffmpeg invocation. Zero disables the bound.
func WithTimeout(d time.Duration) TranscoderOption {
	return func(t *Transcoder) { t.timeout = d }
}

// NewTranscoder creates a Transcoder for the given ffmpeg binary.
func NewTranscoder(ffmpegPath string, opts ...TranscoderOption) (*Transcoder, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ErrNotFound)
	}
	t := &Transcoder{
		ffmpegPath: ffmpegPath,
		executor:   getDefaultExecutor(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// ExtractClip seeks to start (seconds) in srcPath, keeps duration seconds,
// resamples to 16kHz mono without video, and writes destPath.
// An existing destPath is overwritten.
func (t *Transcoder) ExtractClip(ctx context.Context, srcPath string, start, duration float64, destPath string) error {
	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	output, err := t.executor.Run(runCtx, t.ffmpegPath, ClipArgs(srcPath, start, duration, destPath))
	if err == nil {
		return nil
	}

	// Parent cancellation is reported as-is so callers can tell it apart from tool failures.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: killed after %v", ErrTimeout, t.timeout)
	}
	return fmt.Errorf("%w: %v\nOutput: %s", ErrExtractFailed, err, tail(output, maxOutputTail))
}

// ClipArgs returns the ffmpeg arguments for one clip.
func ClipArgs(srcPath string, start, duration float64, destPath string) []string {
	return []string{
		"-y",
		"-i", srcPath,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-vn",
		destPath,
	}
}

// formatSeconds formats seconds with the shortest exact decimal representation.
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// tail returns at most the last n bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
