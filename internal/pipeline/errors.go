package pipeline

import "errors"

// Sentinel errors for unit and segment failures.
//
// Fetch and extraction failures are per-item problems: they are recorded and
// the run continues. ErrFilesystem marks environment problems (permissions,
// full disk) and is reported separately so they are not mistaken for bad ids.
var (
	// ErrFetchFailed indicates the fetch tool failed or produced no video.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrExtractFailed indicates the transcode tool failed or produced no clip.
	ErrExtractFailed = errors.New("extract failed")

	// ErrOutputMissing indicates a tool exited successfully without writing its output.
	ErrOutputMissing = errors.New("tool reported success but output is missing")

	// ErrFilesystem indicates a local filesystem error on the video or clip directories.
	ErrFilesystem = errors.New("filesystem error")

	// ErrCanceled indicates the unit was interrupted before completion.
	ErrCanceled = errors.New("canceled")
)
