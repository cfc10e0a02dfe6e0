package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/adiclip/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader   *mockConfigLoader
	ffmpegResolver *mockFFmpegResolver
	ytdlpResolver  *mockYtDlpResolver
	tools          *mockToolFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		configLoader:   &mockConfigLoader{},
		ffmpegResolver: &mockFFmpegResolver{},
		ytdlpResolver:  &mockYtDlpResolver{},
		tools:          newMockToolFactory(),
	}
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env, the mocks, and the stdout and stderr buffers.
func testEnv(cfg config.Config) (*Env, *testMocks, *syncBuffer, *syncBuffer) {
	mocks := newTestMocks()
	mocks.configLoader.LoadFunc = func() (config.Config, error) { return cfg, nil }
	stdout, stderr := &syncBuffer{}, &syncBuffer{}

	env := &Env{
		Stdout:         stdout,
		Stderr:         stderr,
		Getenv:         func(string) string { return "" },
		Now:            fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		NewRunID:       func() string { return "test-run" },
		IsTerminal:     func(io.Writer) bool { return false },
		ConfigLoader:   mocks.configLoader,
		FFmpegResolver: mocks.ffmpegResolver,
		YtDlpResolver:  mocks.ytdlpResolver,
		ToolFactory:    mocks.tools,
	}
	return env, mocks, stdout, stderr
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// workspace is a temporary corpus layout.
type workspace struct {
	root string
	cfg  config.Config
}

// newWorkspace writes the two manifests and returns a config pointing into a temp dir.
func newWorkspace(t *testing.T, segments, labels string) *workspace {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Segments = filepath.Join(root, "segments")
	cfg.Labels = filepath.Join(root, "utt2lang")
	cfg.OutputDir = filepath.Join(root, "clips")
	cfg.VideoDir = filepath.Join(root, "videos")
	cfg.FailureLog = filepath.Join(root, "failed_downloads.txt")
	cfg.LogLevel = "error"

	if err := os.WriteFile(cfg.Segments, []byte(segments), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Labels, []byte(labels), 0644); err != nil {
		t.Fatal(err)
	}
	return &workspace{root: root, cfg: cfg}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// execute runs cmd with args and returns its error.
func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}
