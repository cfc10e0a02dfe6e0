package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

const (
	// binaryName is the base name of the ffmpeg binary.
	binaryName = "ffmpeg"

	// minFFmpegMajorVersion is the minimum supported ffmpeg version.
	// Older builds mishandle -ss before re-encoding on some containers.
	minFFmpegMajorVersion = 4
)

// EnvFFmpegPath is the environment variable for a custom ffmpeg path.
const EnvFFmpegPath = "FFMPEG_PATH"

// ---------------------------------------------------------------------------
// Resolver - testable FFmpeg resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver finds the ffmpeg binary.
type Resolver struct {
	configured string
	stat       fileStatter
	env        envProvider
	goos       string
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

// WithPlatform sets the target OS (for testing install instructions).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStatter{},
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. Explicitly configured path (error if set but missing)
//  2. FFMPEG_PATH environment variable (error if set but missing)
//  3. System PATH
func (r *Resolver) Resolve(_ context.Context) (string, error) {
	if r.configured != "" {
		if _, err := r.stat.Stat(r.configured); err != nil {
			return "", fmt.Errorf("%w: configured path %q does not exist", ErrNotFound, r.configured)
		}
		return r.configured, nil
	}

	if envPath := r.env.Getenv(EnvFFmpegPath); envPath != "" {
		if _, err := r.stat.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found",
				ErrNotFound, EnvFFmpegPath, envPath)
		}
		return envPath, nil
	}

	if path, err := r.env.LookPath(binaryName); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w in PATH\n\n%s", ErrNotFound, r.manualInstallInstructions())
}

// manualInstallInstructions returns platform-specific instructions.
func (r *Resolver) manualInstallInstructions() string {
	var install string
	switch r.goos {
	case "darwin":
		install = "  brew install ffmpeg"
	case "linux":
		install = `  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg`
	default:
		install = "  download a build from https://ffmpeg.org/download.html"
	}
	return "To install FFmpeg:\n" + install + `

Or point adiclip at an existing binary:
  adiclip config set ffmpeg-path /path/to/ffmpeg
  (or set ` + EnvFFmpegPath + `)`
}

// VersionChecker verifies FFmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	stderr   io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running FFmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: getDefaultExecutor(),
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check verifies that ffmpeg meets minimum version requirements.
// Prints a warning if the version is below minimum but doesn't fail.
// Returns the detected major version, or 0 if it could not be parsed.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) int {
	output, err := vc.executor.Run(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return 0
	}

	// "ffmpeg version 6.1.1 Copyright..." or "ffmpeg version n6.1.1..."
	line, _, _ := strings.Cut(output, "\n")
	if line == "" {
		return 0
	}

	var major int
	if _, err := fmt.Sscanf(line, "ffmpeg version %d", &major); err != nil {
		if _, err := fmt.Sscanf(line, "ffmpeg version n%d", &major); err != nil {
			return 0
		}
	}

	if major < minFFmpegMajorVersion {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minFFmpegMajorVersion)
	}
	return major
}
