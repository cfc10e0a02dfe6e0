package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/alnah/adiclip/internal/manifest"
	"github.com/alnah/adiclip/internal/retry"
)

// VideoExt is the container extension of fetched videos.
const VideoExt = ".mp4"

// Fetcher ensures a source video exists in the video directory.
type Fetcher struct {
	tool     VideoFetcher
	videoDir string
	cookies  string
	failures FailureRecorder
	retry    retry.Config
	fs       fileSystem
	logger   *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithCookies passes a credentials file to every fetch.
func WithCookies(path string) FetcherOption {
	return func(f *Fetcher) { f.cookies = path }
}

// WithFailureRecorder sets where failed ids are recorded.
func WithFailureRecorder(r FailureRecorder) FetcherOption {
	return func(f *Fetcher) { f.failures = r }
}

// WithRetry enables bounded retry of failed fetches within a run.
// The zero Config means a single attempt.
func WithRetry(cfg retry.Config) FetcherOption {
	return func(f *Fetcher) { f.retry = cfg }
}

// WithFetcherFileSystem sets the filesystem implementation (for testing).
func WithFetcherFileSystem(fsys fileSystem) FetcherOption {
	return func(f *Fetcher) { f.fs = fsys }
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher that stores videos in videoDir.
func NewFetcher(tool VideoFetcher, videoDir string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		tool:     tool,
		videoDir: videoDir,
		failures: nopRecorder{},
		fs:       osFileSystem{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// VideoPath returns the local path of a video id.
func (f *Fetcher) VideoPath(videoID string) string {
	return filepath.Join(f.videoDir, videoID+VideoExt)
}

// Ensure makes sure the video exists locally and returns its path.
// fetched is false when the file was already present and the tool was not run.
//
// Ids that are not a plain file name fail with ErrFetchFailed before any
// filesystem access and are not recorded.
// Tool failures and missing output are recorded in the failure log and
// returned wrapped in ErrFetchFailed. Cancellation returns ErrCanceled and is
// not recorded. Any leftover artifact of a failed or canceled fetch is removed
// so a later run does not mistake it for a complete video.
func (f *Fetcher) Ensure(ctx context.Context, videoID string) (path string, fetched bool, err error) {
	// An id that is not a plain file name would point outside videoDir,
	// where nothing may be reused or reaped.
	if err := manifest.ValidateID(videoID); err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	path = f.VideoPath(videoID)

	present, err := f.exists(path)
	if err != nil {
		return path, false, err
	}
	if present {
		f.logger.Debug("video already present", "video_id", videoID, "path", path)
		return path, false, nil
	}

	retryCfg := f.retry
	retryCfg.OnRetry = func(attempt int, lastErr error, delay time.Duration) {
		f.logger.Warn("retrying fetch",
			"video_id", videoID, "attempt", attempt, "delay", delay, "error", lastErr)
	}

	err = retry.Do(ctx, retryCfg, func() error {
		if err := f.tool.FetchVideo(ctx, videoID, path, f.cookies); err != nil {
			return err
		}
		present, err := f.exists(path)
		if err != nil {
			return err
		}
		if !present {
			return ErrOutputMissing
		}
		return nil
	}, func(err error) bool {
		return ctx.Err() == nil && !errors.Is(err, ErrFilesystem)
	})
	if err == nil {
		return path, true, nil
	}

	f.discard(path)

	switch {
	case ctx.Err() != nil:
		return path, false, fmt.Errorf("%w: fetch %s: %w", ErrCanceled, videoID, ctx.Err())
	case errors.Is(err, ErrFilesystem):
		return path, false, err
	}

	err = fmt.Errorf("%w: %s: %w", ErrFetchFailed, videoID, err)
	if recErr := f.failures.Append(videoID); recErr != nil {
		f.logger.Error("cannot record fetch failure", "video_id", videoID, "error", recErr)
		err = errors.Join(err, recErr)
	}
	return path, false, err
}

// exists reports whether path exists. Errors other than not-exist are environment problems.
func (f *Fetcher) exists(path string) (bool, error) {
	_, err := f.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %w", ErrFilesystem, path, err)
}

// partSuffix is appended by yt-dlp to a download in progress.
const partSuffix = ".part"

// discard removes a partial video and the tool's in-progress file, ignoring absence.
func (f *Fetcher) discard(path string) {
	for _, p := range []string{path, path + partSuffix} {
		if err := f.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("cannot remove partial video", "path", p, "error", err)
		}
	}
}
