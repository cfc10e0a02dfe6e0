package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

// Reaper deletes fetched videos once their segments have been attempted,
// bounding disk usage to about one video per busy worker.
type Reaper struct {
	fs     fileSystem
	logger *slog.Logger
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithReaperFileSystem sets the filesystem implementation (for testing).
func WithReaperFileSystem(fsys fileSystem) ReaperOption {
	return func(r *Reaper) { r.fs = fsys }
}

// WithReaperLogger sets the logger.
func WithReaperLogger(l *slog.Logger) ReaperOption {
	return func(r *Reaper) { r.logger = l }
}

// NewReaper creates a Reaper.
func NewReaper(opts ...ReaperOption) *Reaper {
	r := &Reaper{
		fs:     osFileSystem{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reap removes videoPath. A missing file is not an error.
// Other errors are logged and returned for reporting; they never fail the unit.
func (r *Reaper) Reap(videoPath string) error {
	err := r.fs.Remove(videoPath)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	r.logger.Error("cannot remove video", "path", videoPath, "error", err)
	return fmt.Errorf("%w: remove %s: %w", ErrFilesystem, videoPath, err)
}
