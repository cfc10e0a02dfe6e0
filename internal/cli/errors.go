package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates a manifest file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidWorkers indicates a worker count below 1.
	ErrInvalidWorkers = errors.New("workers must be at least 1")

	// ErrFailures indicates that --strict was set and some fetch or extraction failed.
	ErrFailures = errors.New("run completed with failures")

	// ErrInterrupted indicates the run stopped before every unit completed.
	ErrInterrupted = errors.New("run interrupted")
)
