// Package failurelog records source video ids whose fetch failed.
//
// The log is plain text, one id per line, opened in append mode and never
// deduplicated: a later run that fails on the same id appends it again.
package failurelog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Log is an append-only failure log shared by all workers of a run.
// Appends are serialized in-process by a mutex and across processes by an
// advisory lock on the log file, so concurrent runs never interleave lines.
type Log struct {
	path string

	mu   sync.Mutex
	file *os.File
	lock *flock.Flock
	n    int
}

// Open opens (creating if needed) the failure log at path.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil { // #nosec G301 -- user data dir
			return nil, fmt.Errorf("create failure log directory: %w", err)
		}
	}

	// #nosec G302 G304 -- user-configured log path with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open failure log: %w", err)
	}

	return &Log{
		path: path,
		file: f,
		lock: flock.New(path),
	}, nil
}

// Path returns the log location.
func (l *Log) Path() string {
	return l.path
}

// Append writes one id as a single line.
func (l *Log) Append(videoID string) error {
	if videoID == "" || strings.ContainsAny(videoID, "\r\n") {
		return fmt.Errorf("invalid video id %q", videoID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return os.ErrClosed
	}

	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("lock failure log: %w", err)
	}
	defer func() { _ = l.lock.Unlock() }()

	if _, err := l.file.WriteString(videoID + "\n"); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	l.n++
	return nil
}

// Count returns the number of ids appended through this Log.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Close releases the file handle and the advisory lock.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return errors.Join(err, l.lock.Close())
}

// ReadIDs returns the distinct ids recorded at path, in first-seen order.
// A missing file yields no ids and no error.
func ReadIDs(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-configured log path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open failure log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var ids []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read failure log: %w", err)
	}
	return ids, nil
}
