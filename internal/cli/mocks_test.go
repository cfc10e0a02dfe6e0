package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alnah/adiclip/internal/config"
	"github.com/alnah/adiclip/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Default(), nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock FFmpegResolver / YtDlpResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc      func(ctx context.Context, configured string) (string, error)
	CheckVersionFunc func(ctx context.Context, ffmpegPath string) int

	mu                sync.Mutex
	resolveCalls      []string
	checkVersionCalls int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context, configured string) (string, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, configured)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, configured)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) int {
	m.mu.Lock()
	m.checkVersionCalls++
	m.mu.Unlock()

	if m.CheckVersionFunc != nil {
		return m.CheckVersionFunc(ctx, ffmpegPath)
	}
	return 7
}

func (m *mockFFmpegResolver) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolveCalls...)
}

type mockYtDlpResolver struct {
	ResolveFunc func(ctx context.Context, configured string) (string, error)
	VersionStr  string

	mu           sync.Mutex
	resolveCalls []string
	versionCalls []string
}

func (m *mockYtDlpResolver) Resolve(ctx context.Context, configured string) (string, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, configured)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, configured)
	}
	return "/usr/bin/yt-dlp", nil
}

func (m *mockYtDlpResolver) Version(_ context.Context, ytdlpPath string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versionCalls = append(m.versionCalls, ytdlpPath)
	return m.VersionStr
}

func (m *mockYtDlpResolver) VersionCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.versionCalls...)
}

func (m *mockYtDlpResolver) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolveCalls...)
}

// ---------------------------------------------------------------------------
// Mock ToolFactory + tools
// ---------------------------------------------------------------------------

type mockToolFactory struct {
	fetcher   *mockVideoFetcher
	extractor *mockClipExtractor

	NewVideoFetcherErr  error
	NewClipExtractorErr error

	mu              sync.Mutex
	fetchTimeouts   []time.Duration
	extractTimeouts []time.Duration
}

func newMockToolFactory() *mockToolFactory {
	return &mockToolFactory{
		fetcher:   &mockVideoFetcher{},
		extractor: &mockClipExtractor{},
	}
}

func (m *mockToolFactory) NewVideoFetcher(_ string, timeout time.Duration) (pipeline.VideoFetcher, error) {
	m.mu.Lock()
	m.fetchTimeouts = append(m.fetchTimeouts, timeout)
	m.mu.Unlock()
	if m.NewVideoFetcherErr != nil {
		return nil, m.NewVideoFetcherErr
	}
	return m.fetcher, nil
}

func (m *mockToolFactory) NewClipExtractor(_ string, timeout time.Duration) (pipeline.ClipExtractor, error) {
	m.mu.Lock()
	m.extractTimeouts = append(m.extractTimeouts, timeout)
	m.mu.Unlock()
	if m.NewClipExtractorErr != nil {
		return nil, m.NewClipExtractorErr
	}
	return m.extractor, nil
}

// mockVideoFetcher writes a placeholder video unless the id is listed in Fail.
type mockVideoFetcher struct {
	Fail map[string]error

	mu      sync.Mutex
	calls   []string
	cookies []string
}

func (m *mockVideoFetcher) FetchVideo(_ context.Context, videoID, destPath, cookiesPath string) error {
	m.mu.Lock()
	m.calls = append(m.calls, videoID)
	m.cookies = append(m.cookies, cookiesPath)
	err := m.Fail[videoID]
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte("video"), 0644)
}

func (m *mockVideoFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// mockClipExtractor writes a placeholder clip unless its base name is listed in Fail.
type mockClipExtractor struct {
	Fail map[string]error

	mu    sync.Mutex
	calls []string
}

func (m *mockClipExtractor) ExtractClip(_ context.Context, _ string, _, _ float64, destPath string) error {
	m.mu.Lock()
	m.calls = append(m.calls, filepath.Base(destPath))
	err := m.Fail[filepath.Base(destPath)]
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte("clip"), 0644)
}

func (m *mockClipExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
