package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alnah/adiclip/internal/config"
	"github.com/alnah/adiclip/internal/failurelog"
	"github.com/alnah/adiclip/internal/manifest"
)

// flagSpec describes the command-line flag of a config key.
type flagSpec struct {
	short string
	usage string
}

var configFlags = map[string]flagSpec{
	config.KeySegments:       {"s", "Segment manifest: <utt> <video> <start> <end> per line"},
	config.KeyLabels:         {"l", "Label manifest: <id> <label> per line"},
	config.KeyOutputDir:      {"o", "Directory for extracted clips"},
	config.KeyVideoDir:       {"", "Working directory for fetched videos"},
	config.KeyCookies:        {"", "Cookies file passed to yt-dlp"},
	config.KeyFailureLog:     {"", "File receiving the ids of videos that could not be fetched"},
	config.KeyWorkers:        {"w", "Number of videos processed concurrently"},
	config.KeyLimit:          {"n", "Process only the first N segments (0 = all)"},
	config.KeyFetchRetries:   {"", "Retries per failed fetch within a run"},
	config.KeyFetchTimeout:   {"", "Timeout per fetch, e.g. 30m (0 = none)"},
	config.KeyExtractTimeout: {"", "Timeout per clip extraction, e.g. 5m (0 = none)"},
	config.KeyFormat:         {"f", "Clip file extension (ffmpeg picks the container)"},
	config.KeyLogLevel:       {"", "Log level: debug, info, warn, error"},
	config.KeyLogFormat:      {"", "Log format: console, json"},
	config.KeyLogFile:        {"", "Also write logs to this rotating file"},
	config.KeyYtDlpPath:      {"", "Path to yt-dlp (default: $YTDLP_PATH, then PATH)"},
	config.KeyFFmpegPath:     {"", "Path to ffmpeg (default: $FFMPEG_PATH, then PATH)"},
}

// bindConfigFlags registers one flag per config key. Defaults shown in help
// are the built-in ones; only flags set by the user override the config.
func bindConfigFlags(cmd *cobra.Command, keys ...string) {
	def := config.Default()
	for _, key := range keys {
		spec := configFlags[key]
		value, _ := def.Value(key)
		if isNumericKey(key) {
			n, _ := strconv.Atoi(value)
			cmd.Flags().IntP(key, spec.short, n, spec.usage)
			continue
		}
		cmd.Flags().StringP(key, spec.short, value, spec.usage)
	}
}

func isNumericKey(key string) bool {
	switch key {
	case config.KeyWorkers, config.KeyLimit, config.KeyFetchRetries:
		return true
	}
	return false
}

// resolveConfig layers flags over the loaded config and validates the result.
// Precedence: flag > environment > config file > defaults.
func resolveConfig(cmd *cobra.Command, env *Env) (config.Config, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	for _, key := range config.Keys() {
		f := cmd.Flags().Lookup(key)
		if f == nil || !f.Changed {
			continue
		}
		value := f.Value.String()
		if key == config.KeyWorkers {
			if n, err := strconv.Atoi(value); err == nil && n < 1 {
				return cfg, fmt.Errorf("%w: got %d", ErrInvalidWorkers, n)
			}
		}
		if err := cfg.Set(key, value); err != nil {
			return cfg, fmt.Errorf("--%s: %w", key, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// checkExists verifies that an input file exists.
func checkExists(what, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s %s", ErrFileNotFound, what, path)
		}
		return fmt.Errorf("cannot access %s: %w", what, err)
	}
	return nil
}

// loadWork loads both manifests and groups the segments by video.
func loadWork(cfg config.Config, dropUnlabeled bool) (*manifest.Manifest, []manifest.VideoGroup, error) {
	if err := checkExists("segment manifest", cfg.Segments); err != nil {
		return nil, nil, err
	}
	if err := checkExists("label manifest", cfg.Labels); err != nil {
		return nil, nil, err
	}

	policy := manifest.Lenient
	if dropUnlabeled {
		policy = manifest.Strict
	}
	m, err := manifest.Load(cfg.Segments, cfg.Labels, manifest.Options{Policy: policy, Limit: cfg.Limit})
	if err != nil {
		return nil, nil, err
	}
	return m, manifest.Group(m.Segments), nil
}

// onlyFailed keeps the groups whose video id is listed in the failure log.
func onlyFailed(failureLog string, groups []manifest.VideoGroup) ([]manifest.VideoGroup, error) {
	ids, err := failurelog.ReadIDs(failureLog)
	if err != nil {
		return nil, err
	}
	failed := make(map[string]bool, len(ids))
	for _, id := range ids {
		failed[id] = true
	}
	var kept []manifest.VideoGroup
	for _, g := range groups {
		if failed[g.VideoID] {
			kept = append(kept, g)
		}
	}
	return kept, nil
}

func countSegments(groups []manifest.VideoGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Segments)
	}
	return n
}
