package manifest

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord indicates a manifest line could not be parsed.
// A malformed manifest aborts the whole run: grouping partial data is meaningless.
var ErrMalformedRecord = errors.New("malformed manifest record")

// ErrUnsafeID indicates an id that cannot be used as a single file name.
var ErrUnsafeID = errors.New("id is not a safe file name")

// MalformedRecordError describes the offending line of a manifest.
type MalformedRecordError struct {
	Path   string // Manifest path, or a descriptive name for non-file readers.
	Line   int    // 1-based line number.
	Text   string // Raw line content.
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.Path, e.Line, e.Reason, e.Text)
}

// Unwrap allows errors.Is(err, ErrMalformedRecord).
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
