package ffmpeg

import (
	"context"
	"os"
	"os/exec"
)

// ---------------------------------------------------------------------------
// Interfaces - local to this package, following Go idiom
// ---------------------------------------------------------------------------

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// envProvider abstracts environment and path lookup operations.
type envProvider interface {
	Getenv(key string) string
	LookPath(file string) (string, error)
}

// runFn runs a command and returns its combined stdout/stderr.
type runFn func(ctx context.Context, path string, args []string) ([]byte, error)

// ---------------------------------------------------------------------------
// Default implementations - delegate to standard library
// ---------------------------------------------------------------------------

// Compile-time interface verification.
var (
	_ fileStatter = osFileStatter{}
	_ envProvider = osEnvProvider{}
)

// osFileStatter implements fileStatter using os.Stat.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// osEnvProvider implements envProvider using os and exec packages.
type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (osEnvProvider) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// defaultRun is the production runFn. The process is killed when ctx is done.
func defaultRun(ctx context.Context, path string, args []string) ([]byte, error) {
	// #nosec G204 -- path is the resolved ffmpeg binary, args are built by this package
	cmd := exec.CommandContext(ctx, path, args...)
	return cmd.CombinedOutput()
}
