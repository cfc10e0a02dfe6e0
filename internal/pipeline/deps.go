package pipeline

import (
	"context"
	"os"
)

// VideoFetcher obtains one source video. Implementations run an external tool;
// the pipeline verifies the output itself.
type VideoFetcher interface {
	FetchVideo(ctx context.Context, videoID, destPath, cookiesPath string) error
}

// ClipExtractor cuts one normalized clip out of a local video.
// start and duration are in seconds.
type ClipExtractor interface {
	ExtractClip(ctx context.Context, srcPath string, start, duration float64, destPath string) error
}

// FailureRecorder persists the ids of videos whose fetch failed.
// Append must be safe for concurrent use.
type FailureRecorder interface {
	Append(videoID string) error
}

// fileSystem abstracts the filesystem operations of the pipeline.
type fileSystem interface {
	Stat(name string) (os.FileInfo, error)
	Remove(name string) error
}

// Compile-time interface verification.
var _ fileSystem = osFileSystem{}

// osFileSystem implements fileSystem using the os package.
type osFileSystem struct{}

func (osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (osFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// nopRecorder discards failures.
type nopRecorder struct{}

func (nopRecorder) Append(string) error { return nil }
