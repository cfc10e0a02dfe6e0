// Package ytdlp wraps the yt-dlp executable used to fetch source videos.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	binaryName = "yt-dlp"

	// DefaultFormat selects the best audio-only stream in an mp4 container.
	DefaultFormat = "bestaudio[ext=mp4]"

	// watchURLPrefix builds the canonical watch URL for a video id.
	watchURLPrefix = "https://www.youtube.com/watch?v="

	maxOutputTail = 2048
)

// EnvYtDlpPath is the environment variable for a custom yt-dlp path.
const EnvYtDlpPath = "YTDLP_PATH"

// WatchURL returns the canonical URL for a video id.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolver finds the yt-dlp binary.
type Resolver struct {
	configured string
	stat       fileStatter
	env        envProvider
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConfiguredPath sets an explicit binary path (from flags or config file).
func WithConfiguredPath(p string) ResolverOption {
	return func(r *Resolver) { r.configured = p }
}

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStatter{},
		env:  osEnvProvider{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds yt-dlp: configured path, then YTDLP_PATH, then PATH.
func (r *Resolver) Resolve(_ context.Context) (string, error) {
	if r.configured != "" {
		if _, err := r.stat.Stat(r.configured); err != nil {
			return "", fmt.Errorf("%w: configured path %q does not exist", ErrNotFound, r.configured)
		}
		return r.configured, nil
	}

	if envPath := r.env.Getenv(EnvYtDlpPath); envPath != "" {
		if _, err := r.stat.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found", ErrNotFound, EnvYtDlpPath, envPath)
		}
		return envPath, nil
	}

	if path, err := r.env.LookPath(binaryName); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w in PATH (install with: pipx install yt-dlp, or set %s)", ErrNotFound, EnvYtDlpPath)
}

// ---------------------------------------------------------------------------
// Fetcher
// ---------------------------------------------------------------------------

// Fetcher downloads source videos with yt-dlp.
type Fetcher struct {
	binPath string
	format  string
	timeout time.Duration
	cmd     commandRunner
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFormat sets the yt-dlp format selector.
func WithFormat(f string) FetcherOption {
	return func(ft *Fetcher) { ft.format = f }
}

// WithTimeout bounds each yt-dlp invocation. Zero disables the bound.
func WithTimeout(d time.Duration) FetcherOption {
	return func(ft *Fetcher) { ft.timeout = d }
}

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) FetcherOption {
	return func(ft *Fetcher) { ft.cmd = r }
}

// NewFetcher creates a Fetcher for the given yt-dlp binary.
func NewFetcher(binPath string, opts ...FetcherOption) (*Fetcher, error) {
	if binPath == "" {
		return nil, fmt.Errorf("binPath cannot be empty: %w", ErrNotFound)
	}
	f := &Fetcher{
		binPath: binPath,
		format:  DefaultFormat,
		cmd:     osCommandRunner{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FetchVideo downloads videoID to destPath. cookiesPath is passed to yt-dlp
// only when non-empty.
//
// A zero exit status is not proof of success: callers must check that destPath exists.
func (f *Fetcher) FetchVideo(ctx context.Context, videoID, destPath, cookiesPath string) error {
	runCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	output, err := f.cmd.CombinedOutput(runCtx, f.binPath, FetchArgs(videoID, destPath, f.format, cookiesPath))
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s killed after %v", ErrTimeout, videoID, f.timeout)
	}
	return fmt.Errorf("%w: %s: %v\nOutput: %s", ErrFetchFailed, videoID, err, tail(string(output), maxOutputTail))
}

// Version returns the yt-dlp version string, or "" if it cannot be determined.
func (f *Fetcher) Version(ctx context.Context) string {
	out, err := f.cmd.CombinedOutput(ctx, f.binPath, []string{"--version"})
	if err != nil {
		return ""
	}
	v, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return v
}

// FetchArgs returns the yt-dlp arguments for one video.
func FetchArgs(videoID, destPath, format, cookiesPath string) []string {
	args := []string{
		"-f", format,
		"--no-playlist",
		"-o", destPath,
	}
	if cookiesPath != "" {
		args = append(args, "--cookies", cookiesPath)
	}
	return append(args, WatchURL(videoID))
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
