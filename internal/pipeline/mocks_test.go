package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// fakeFetcher writes a placeholder video unless fail or noOutput says otherwise.
type fakeFetcher struct {
	mu       sync.Mutex
	calls    []string
	cookies  []string
	fail     map[string]error
	noOutput map[string]bool
	delay    time.Duration
	hook     func(videoID string)

	inFlight    int
	maxInFlight int
}

func (f *fakeFetcher) FetchVideo(ctx context.Context, videoID, destPath, cookiesPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, videoID)
	f.cookies = append(f.cookies, cookiesPath)
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	err := f.fail[videoID]
	noOutput := f.noOutput[videoID]
	hook := f.hook
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if hook != nil {
		hook(videoID)
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if err != nil {
		return err
	}
	if noOutput {
		return nil
	}
	return os.WriteFile(destPath, []byte("video:"+videoID), 0o644)
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFetcher) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

type extractCall struct {
	src      string
	start    float64
	duration float64
	dest     string
}

// fakeExtractor writes a placeholder clip unless the destination is configured to fail.
type fakeExtractor struct {
	mu       sync.Mutex
	calls    []extractCall
	fail     map[string]error // keyed by clip base name
	noOutput map[string]bool
	hook     func(dest string)
	srcSeen  map[string]bool
}

func (f *fakeExtractor) ExtractClip(ctx context.Context, src string, start, duration float64, dest string) error {
	f.mu.Lock()
	f.calls = append(f.calls, extractCall{src: src, start: start, duration: duration, dest: dest})
	if f.srcSeen == nil {
		f.srcSeen = map[string]bool{}
	}
	_, statErr := os.Stat(src)
	f.srcSeen[dest] = statErr == nil
	base := filepath.Base(dest)
	err := f.fail[base]
	noOutput := f.noOutput[base]
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(dest)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	if noOutput {
		return nil
	}
	return os.WriteFile(dest, []byte("clip"), 0o644)
}

func (f *fakeExtractor) Calls() []extractCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]extractCall(nil), f.calls...)
}

// mockFileSystem overrides Stat and Remove; nil funcs fall back to the os package.
type mockFileSystem struct {
	mu      sync.Mutex
	stat    func(name string) (os.FileInfo, error)
	remove  func(name string) error
	removed []string
}

func (m *mockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.stat != nil {
		return m.stat(name)
	}
	return os.Stat(name)
}

func (m *mockFileSystem) Remove(name string) error {
	m.mu.Lock()
	m.removed = append(m.removed, name)
	m.mu.Unlock()
	if m.remove != nil {
		return m.remove(name)
	}
	return os.Remove(name)
}

func (m *mockFileSystem) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

type mockRecorder struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (m *mockRecorder) Append(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.ids = append(m.ids, id)
	return nil
}

func (m *mockRecorder) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ids...)
}

type stateChange struct {
	videoID  string
	from, to State
}

type mockObserver struct {
	mu       sync.Mutex
	changes  []stateChange
	finished []UnitResult
	active   int
	maxAct   int
}

func (m *mockObserver) UnitStateChanged(videoID string, from, to State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, stateChange{videoID, from, to})
	if !from.Active() && to.Active() {
		m.active++
		m.maxAct = max(m.maxAct, m.active)
	}
	if from.Active() && !to.Active() {
		m.active--
	}
}

func (m *mockObserver) UnitFinished(res UnitResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, res)
}

func (m *mockObserver) MaxActive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxAct
}

func (m *mockObserver) Finished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.finished)
}

var errTool = errors.New("tool exited with status 1")
