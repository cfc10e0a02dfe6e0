package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config keys, shared by the config file, flags and environment.
const (
	KeySegments       = "segments"
	KeyLabels         = "labels"
	KeyOutputDir      = "output-dir"
	KeyVideoDir       = "video-dir"
	KeyCookies        = "cookies"
	KeyFailureLog     = "failure-log"
	KeyWorkers        = "workers"
	KeyLimit          = "limit"
	KeyFetchRetries   = "fetch-retries"
	KeyFetchTimeout   = "fetch-timeout"
	KeyExtractTimeout = "extract-timeout"
	KeyFormat         = "format"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyLogFile        = "log-file"
	KeyYtDlpPath      = "ytdlp-path"
	KeyFFmpegPath     = "ffmpeg-path"
)

// EnvPrefix prefixes the environment variable of every key:
// output-dir is read from ADICLIP_OUTPUT_DIR.
const EnvPrefix = "ADICLIP_"

// Config holds the run configuration.
type Config struct {
	Segments       string `toml:"segments"`
	Labels         string `toml:"labels"`
	OutputDir      string `toml:"output-dir"`
	VideoDir       string `toml:"video-dir"`
	Cookies        string `toml:"cookies"`
	FailureLog     string `toml:"failure-log"`
	Workers        int    `toml:"workers"`
	Limit          int    `toml:"limit"`
	FetchRetries   int    `toml:"fetch-retries"`
	FetchTimeout   string `toml:"fetch-timeout"`
	ExtractTimeout string `toml:"extract-timeout"`
	Format         string `toml:"format"`
	LogLevel       string `toml:"log-level"`
	LogFormat      string `toml:"log-format"`
	LogFile        string `toml:"log-file"`
	YtDlpPath      string `toml:"ytdlp-path"`
	FFmpegPath     string `toml:"ffmpeg-path"`
}

// Default returns the built-in configuration, laid out like the ADI17 corpus.
func Default() Config {
	return Config{
		Segments:       filepath.Join("data", "ADI17", "train", "segments"),
		Labels:         filepath.Join("data", "ADI17", "train", "utt2lang"),
		OutputDir:      filepath.Join("data", "clips"),
		VideoDir:       filepath.Join("data", "full_videos"),
		FailureLog:     "failed_downloads.txt",
		Workers:        4,
		FetchTimeout:   "30m",
		ExtractTimeout: "5m",
		Format:         "wav",
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// field binds a key to its Config member.
type field struct {
	key     string
	numeric bool
	ptr     func(*Config) any
}

func str(f func(*Config) *string) func(*Config) any { return func(c *Config) any { return f(c) } }
func num(f func(*Config) *int) func(*Config) any    { return func(c *Config) any { return f(c) } }

var fields = []field{
	{KeySegments, false, str(func(c *Config) *string { return &c.Segments })},
	{KeyLabels, false, str(func(c *Config) *string { return &c.Labels })},
	{KeyOutputDir, false, str(func(c *Config) *string { return &c.OutputDir })},
	{KeyVideoDir, false, str(func(c *Config) *string { return &c.VideoDir })},
	{KeyCookies, false, str(func(c *Config) *string { return &c.Cookies })},
	{KeyFailureLog, false, str(func(c *Config) *string { return &c.FailureLog })},
	{KeyWorkers, true, num(func(c *Config) *int { return &c.Workers })},
	{KeyLimit, true, num(func(c *Config) *int { return &c.Limit })},
	{KeyFetchRetries, true, num(func(c *Config) *int { return &c.FetchRetries })},
	{KeyFetchTimeout, false, str(func(c *Config) *string { return &c.FetchTimeout })},
	{KeyExtractTimeout, false, str(func(c *Config) *string { return &c.ExtractTimeout })},
	{KeyFormat, false, str(func(c *Config) *string { return &c.Format })},
	{KeyLogLevel, false, str(func(c *Config) *string { return &c.LogLevel })},
	{KeyLogFormat, false, str(func(c *Config) *string { return &c.LogFormat })},
	{KeyLogFile, false, str(func(c *Config) *string { return &c.LogFile })},
	{KeyYtDlpPath, false, str(func(c *Config) *string { return &c.YtDlpPath })},
	{KeyFFmpegPath, false, str(func(c *Config) *string { return &c.FFmpegPath })},
}

func lookup(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Keys returns every recognized key in declaration order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Set assigns a string value to key, converting and validating it.
func (c *Config) Set(key, value string) error {
	f, ok := lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	value = strings.TrimSpace(value)
	switch p := f.ptr(c).(type) {
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidValue, key, value)
		}
		*p = n
	case *string:
		*p = value
	}
	return checkKey(*c, key)
}

// Value returns the string form of key.
func (c Config) Value(key string) (string, error) {
	f, ok := lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	switch p := f.ptr(&c).(type) {
	case *int:
		return strconv.Itoa(*p), nil
	case *string:
		return *p, nil
	}
	return "", nil
}

// Validate checks every option.
func (c Config) Validate() error {
	var errs []error
	for _, f := range fields {
		if err := checkKey(c, f.key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"console", "json"}
)

func checkKey(c Config, key string) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s %s", ErrInvalidValue, key, fmt.Sprintf(format, args...))
	}
	switch key {
	case KeyWorkers:
		if c.Workers < 1 {
			return invalid("must be at least 1, got %d", c.Workers)
		}
	case KeyLimit:
		if c.Limit < 0 {
			return invalid("must be 0 (no limit) or positive, got %d", c.Limit)
		}
	case KeyFetchRetries:
		if c.FetchRetries < 0 {
			return invalid("must not be negative, got %d", c.FetchRetries)
		}
	case KeyFetchTimeout, KeyExtractTimeout:
		v, _ := c.Value(key)
		if _, err := ParseTimeout(v); err != nil {
			return invalid("%v", err)
		}
	case KeyFormat:
		if c.Format == "" || strings.ContainsAny(c.Format, `/\. `) {
			return invalid("must be a bare file extension, got %q", c.Format)
		}
	case KeyLogLevel:
		if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
			return invalid("must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel)
		}
	case KeyLogFormat:
		if !slices.Contains(logFormats, strings.ToLower(c.LogFormat)) {
			return invalid("must be one of %s, got %q", strings.Join(logFormats, ", "), c.LogFormat)
		}
	case KeySegments, KeyLabels, KeyOutputDir, KeyVideoDir, KeyFailureLog:
		if strings.TrimSpace(mustValue(c, key)) == "" {
			return invalid("cannot be empty")
		}
	}
	return nil
}

func mustValue(c Config, key string) string {
	v, _ := c.Value(key)
	return v
}

// ParseTimeout parses a timeout option. Empty and "0" disable the timeout.
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/adiclip.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "adiclip"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "adiclip"), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.toml"), nil
}

// Load returns the defaults overlaid with the config file, then the environment.
// A missing config file is not an error. Flags are applied by the caller.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return load(p, os.Getenv)
}

func load(p string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if err := decodeFile(p, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}

	for _, key := range Keys() {
		v := getenv(EnvName(key))
		if v == "" {
			continue
		}
		if err := cfg.Set(key, v); err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}

	return cfg, nil
}

// decodeFile decodes a TOML file onto cfg, keeping values absent from the file.
func decodeFile(p string, cfg *Config) error {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", p, err)
	}
	return nil
}

// readRaw reads the config file as a key/value table.
func readRaw(p string) (map[string]any, error) {
	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	raw := make(map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", p, err)
	}
	return raw, nil
}

// Save writes a single key to the config file, validating it first.
// Creates the config directory and file if they don't exist.
// Preserves other keys but discards comments.
func Save(key, value string) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return save(p, key, value)
}

func save(p, key, value string) error {
	scratch := Default()
	if err := scratch.Set(key, value); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	raw, err := readRaw(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	f, _ := lookup(key)
	if f.numeric {
		raw[key] = scratch.mustInt(key)
	} else {
		raw[key] = mustValue(scratch, key)
	}

	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

func (c Config) mustInt(key string) int {
	f, _ := lookup(key)
	if p, ok := f.ptr(&c).(*int); ok {
		return *p
	}
	return 0
}

// Get reads a single value from the config file.
// Returns empty string if the key is not set there.
func Get(key string) (string, error) {
	if _, ok := lookup(key); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	all, err := List()
	if err != nil {
		return "", err
	}
	return all[key], nil
}

// List returns the values set in the config file.
func List() (map[string]string, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return list(p)
}

func list(p string) (map[string]string, error) {
	raw, err := readRaw(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
