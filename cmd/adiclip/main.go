package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/adiclip/internal/cli"
	"github.com/alnah/adiclip/internal/config"
	"github.com/alnah/adiclip/internal/ffmpeg"
	"github.com/alnah/adiclip/internal/interrupt"
	"github.com/alnah/adiclip/internal/label"
	"github.com/alnah/adiclip/internal/manifest"
	"github.com/alnah/adiclip/internal/pipeline"
	"github.com/alnah/adiclip/internal/ytdlp"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitFailures   = 5
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C drains, a second one within the window cancels ctx.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.NewEnv(cli.WithDraining(handler.Draining()))

	rootCmd := &cobra.Command{
		Use:   "adiclip",
		Short: "Build a labeled dialect-clip corpus from online videos",
		Long: `adiclip reads a segment manifest and a label manifest, fetches each
referenced video once, cuts one 16 kHz mono clip per segment and deletes
the video afterwards.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.PlanCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		handler.Stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, cli.ErrInterrupted) {
		return ExitInterrupt
	}

	// Cobra doesn't expose typed errors for flag and argument parsing.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Environment not ready: missing tools, unwritable directories.
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, ytdlp.ErrNotFound) ||
		errors.Is(err, pipeline.ErrFilesystem) {
		return ExitSetup
	}

	// Bad input or configuration.
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrInvalidWorkers) ||
		errors.Is(err, manifest.ErrMalformedRecord) || errors.Is(err, label.ErrInvalid) ||
		errors.Is(err, config.ErrInvalidValue) || errors.Is(err, config.ErrUnknownKey) {
		return ExitValidation
	}

	if errors.Is(err, cli.ErrFailures) {
		return ExitFailures
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",          // Missing required flag
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"unknown command",        // Subcommand doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
	"accepts ",               // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",      // Too few arguments
	"requires at most",       // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
