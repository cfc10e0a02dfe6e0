package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/adiclip/internal/config"
	"github.com/alnah/adiclip/internal/failurelog"
	"github.com/alnah/adiclip/internal/logging"
	"github.com/alnah/adiclip/internal/pipeline"
	"github.com/alnah/adiclip/internal/retry"
)

// Fetch retry backoff bounds.
const (
	fetchRetryBaseDelay = 2 * time.Second
	fetchRetryMaxDelay  = 30 * time.Second
)

// runOptions holds the run flags that are not config keys.
type runOptions struct {
	dropUnlabeled bool
	strict        bool
	retryFailed   bool
}

// RunCmd creates the run command.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch source videos and extract labeled clips",
		Long: `Fetch every source video referenced by the segment manifest, cut one
16 kHz mono clip per segment named <utterance>_<label>.<format>, and delete
each video once its segments are done.

Videos that cannot be fetched are appended to the failure log and skipped;
a failed segment never affects its siblings. Existing videos are reused.

Press Ctrl+C once to stop starting new videos, twice within 2s to abort
the ones in flight.`,
		Example: `  adiclip run
  adiclip run -s data/ADI17/dev/segments -l data/ADI17/dev/utt2lang -w 8
  adiclip run --limit 50 --cookies cookies.txt
  adiclip run --retry-failed --fetch-retries 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, env, opts)
		},
	}

	bindConfigFlags(cmd, config.Keys()...)
	cmd.Flags().BoolVar(&opts.dropUnlabeled, "drop-unlabeled", false, "Skip segments without a label instead of labeling them unknown")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit with status 5 if any fetch or extraction failed")
	cmd.Flags().BoolVar(&opts.retryFailed, "retry-failed", false, "Process only the videos listed in the failure log")

	return cmd
}

// runRun executes the extraction pipeline.
// Order: config -> manifests -> progress and logger -> tools -> directories -> failure log -> schedule.
func runRun(cmd *cobra.Command, env *Env, opts runOptions) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	cfg, err := resolveConfig(cmd, env)
	if err != nil {
		return err
	}
	fetchTimeout, _ := config.ParseTimeout(cfg.FetchTimeout)
	extractTimeout, _ := config.ParseTimeout(cfg.ExtractTimeout)
	if cfg.Cookies != "" {
		if err := checkExists("cookies file", cfg.Cookies); err != nil {
			return err
		}
	}

	m, groups, err := loadWork(cfg, opts.dropUnlabeled)
	if err != nil {
		return err
	}
	if opts.retryFailed {
		if groups, err = onlyFailed(cfg.FailureLog, groups); err != nil {
			return err
		}
	}
	if len(groups) == 0 {
		fmt.Fprintln(env.Stderr, "No segments to process.")
		return nil
	}

	// === SETUP ===

	// Console logs go through the progress display so they never split the bar.
	progress := newProgress(env, len(groups))
	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: progress.LogWriter(),
		File:   cfg.LogFile,
		RunID:  env.NewRunID(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	ytdlpPath, err := env.YtDlpResolver.Resolve(ctx, cfg.YtDlpPath)
	if err != nil {
		return err
	}
	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx, cfg.FFmpegPath)
	if err != nil {
		return err
	}
	ffmpegMajor := env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)
	ytdlpVersion := env.YtDlpResolver.Version(ctx, ytdlpPath)

	for _, dir := range []string{cfg.OutputDir, cfg.VideoDir} {
		if err := os.MkdirAll(dir, 0750); err != nil { // #nosec G301 -- user data dirs
			return fmt.Errorf("%w: create %s: %w", pipeline.ErrFilesystem, dir, err)
		}
	}

	flog, err := failurelog.Open(cfg.FailureLog)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrFilesystem, err)
	}
	defer func() { _ = flog.Close() }()

	fetchTool, err := env.ToolFactory.NewVideoFetcher(ytdlpPath, fetchTimeout)
	if err != nil {
		return err
	}
	clipTool, err := env.ToolFactory.NewClipExtractor(ffmpegPath, extractTimeout)
	if err != nil {
		return err
	}

	// === PIPELINE ===

	fetcher := pipeline.NewFetcher(fetchTool, cfg.VideoDir,
		pipeline.WithCookies(cfg.Cookies),
		pipeline.WithFailureRecorder(flog),
		pipeline.WithRetry(retry.Config{
			MaxRetries: cfg.FetchRetries,
			BaseDelay:  fetchRetryBaseDelay,
			MaxDelay:   fetchRetryMaxDelay,
		}),
		pipeline.WithFetcherLogger(logger),
	)
	extractor := pipeline.NewExtractor(clipTool, cfg.OutputDir,
		pipeline.WithClipExt(cfg.Format),
		pipeline.WithExtractorLogger(logger),
	)
	reaper := pipeline.NewReaper(pipeline.WithReaperLogger(logger))

	scheduler := pipeline.NewScheduler(fetcher, extractor, reaper,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithStop(env.Draining),
		pipeline.WithObserver(progress),
		pipeline.WithSchedulerLogger(logger),
	)

	logger.Info("run started",
		"videos", len(groups),
		"segments", countSegments(groups),
		"unlabeled", m.Unlabeled,
		"workers", cfg.Workers,
		"ytdlp", ytdlpPath,
		"ytdlp_version", ytdlpVersion,
		"ffmpeg", ffmpegPath,
		"ffmpeg_major", ffmpegMajor)

	report := scheduler.Run(ctx, groups)
	progress.Finish()

	fmt.Fprintln(env.Stdout, renderSummary(report))

	tot := report.Totals()
	logger.Info("run finished",
		"clips", tot.Clips,
		"clip_failures", tot.ClipFailures,
		"fetch_failures", tot.FetchFailed,
		"failures_logged", flog.Count(),
		"elapsed", report.Elapsed())

	if n := tot.Canceled + tot.Skipped; n > 0 {
		return fmt.Errorf("%w: %d of %d videos not completed", ErrInterrupted, n, tot.Units)
	}
	if opts.strict && report.HasFailures() {
		return fmt.Errorf("%w: %d fetch failures (%d recorded in %s), %d clip failures",
			ErrFailures, tot.FetchFailed, flog.Count(), flog.Path(), tot.ClipFailures)
	}
	return nil
}
