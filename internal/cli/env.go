package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/alnah/adiclip/internal/config"
	"github.com/alnah/adiclip/internal/ffmpeg"
	"github.com/alnah/adiclip/internal/pipeline"
	"github.com/alnah/adiclip/internal/ytdlp"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout     io.Writer
	Stderr     io.Writer
	Getenv     func(string) string
	Now        func() time.Time
	NewRunID   func() string
	IsTerminal func(w io.Writer) bool

	// Draining is closed when the user asks the run to stop dispatching.
	// Nil means never.
	Draining <-chan struct{}

	// Factories for domain objects
	ConfigLoader   ConfigLoader
	FFmpegResolver FFmpegResolver
	YtDlpResolver  YtDlpResolver
	ToolFactory    ToolFactory
}

// ConfigLoader loads the layered configuration (defaults, file, environment).
type ConfigLoader interface {
	Load() (config.Config, error)
}

// FFmpegResolver resolves the path to the FFmpeg binary.
// CheckVersion warns about old builds and returns the major version, 0 if unknown.
type FFmpegResolver interface {
	Resolve(ctx context.Context, configured string) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string) int
}

// YtDlpResolver resolves the path to the yt-dlp binary.
// Version returns "" when the binary does not report one.
type YtDlpResolver interface {
	Resolve(ctx context.Context, configured string) (string, error)
	Version(ctx context.Context, ytdlpPath string) string
}

// ToolFactory creates the external tool adapters used by the pipeline.
type ToolFactory interface {
	NewVideoFetcher(ytdlpPath string, timeout time.Duration) (pipeline.VideoFetcher, error)
	NewClipExtractor(ffmpegPath string, timeout time.Duration) (pipeline.ClipExtractor, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithDraining sets the channel that stops dispatch of new units.
func WithDraining(ch <-chan struct{}) EnvOption {
	return func(e *Env) { e.Draining = ch }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithYtDlpResolver sets the yt-dlp resolver.
func WithYtDlpResolver(r YtDlpResolver) EnvOption {
	return func(e *Env) { e.YtDlpResolver = r }
}

// WithToolFactory sets the tool factory.
func WithToolFactory(f ToolFactory) EnvOption {
	return func(e *Env) { e.ToolFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Getenv:         os.Getenv,
		Now:            time.Now,
		NewRunID:       func() string { return uuid.NewString() },
		IsTerminal:     isTerminal,
		ConfigLoader:   &defaultConfigLoader{},
		FFmpegResolver: &defaultFFmpegResolver{},
		YtDlpResolver:  &defaultYtDlpResolver{},
		ToolFactory:    &defaultToolFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context, configured string) (string, error) {
	return ffmpeg.NewResolver(ffmpeg.WithConfiguredPath(configured)).Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) int {
	return ffmpeg.NewVersionChecker().Check(ctx, ffmpegPath)
}

// defaultYtDlpResolver implements YtDlpResolver using the ytdlp package.
type defaultYtDlpResolver struct{}

func (defaultYtDlpResolver) Resolve(ctx context.Context, configured string) (string, error) {
	return ytdlp.NewResolver(ytdlp.WithConfiguredPath(configured)).Resolve(ctx)
}

func (defaultYtDlpResolver) Version(ctx context.Context, ytdlpPath string) string {
	f, err := ytdlp.NewFetcher(ytdlpPath)
	if err != nil {
		return ""
	}
	return f.Version(ctx)
}

// defaultToolFactory implements ToolFactory with yt-dlp and ffmpeg.
type defaultToolFactory struct{}

func (defaultToolFactory) NewVideoFetcher(ytdlpPath string, timeout time.Duration) (pipeline.VideoFetcher, error) {
	f, err := ytdlp.NewFetcher(ytdlpPath, ytdlp.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (defaultToolFactory) NewClipExtractor(ffmpegPath string, timeout time.Duration) (pipeline.ClipExtractor, error) {
	t, err := ffmpeg.NewTranscoder(ffmpegPath, ffmpeg.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Compile-time interface verification.
var (
	_ ConfigLoader   = (*defaultConfigLoader)(nil)
	_ FFmpegResolver = (*defaultFFmpegResolver)(nil)
	_ YtDlpResolver  = (*defaultYtDlpResolver)(nil)
	_ ToolFactory    = (*defaultToolFactory)(nil)
)
