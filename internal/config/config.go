// Package config loads the optional YAML configuration file for the
// distiller CLI and validates the merged settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/distiller/internal/runtime"
)

// MaxFileSize bounds the config file so a wrong path cannot make Load read
// something huge.
const MaxFileSize = 1024 * 1024

// DefaultOutput is the store destination used when none is given.
const DefaultOutput = "results.db"

// DefaultMinCommentLength is the byte length below which comments are dropped.
const DefaultMinCommentLength = 5

// DefaultReadRetries is how often a transient read failure is retried.
const DefaultReadRetries = 2

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config is the merged run configuration. Zero Workers means one worker
// per available CPU.
type Config struct {
	Output           string   `yaml:"output"`
	Workers          int      `yaml:"workers"`
	Extensions       []string `yaml:"extensions"`
	MinCommentLength int      `yaml:"min_comment_length"`
	FilterScript     string   `yaml:"filter_script"`
	MetricsFile      string   `yaml:"metrics_file"`
	LogLevel         string   `yaml:"log_level"`
	LogFormat        string   `yaml:"log_format"`
	ReadRetries      int      `yaml:"read_retries"`
}

// Defaults returns the configuration used when neither a file nor flags
// say otherwise.
func Defaults() Config {
	return Config{
		Output:           DefaultOutput,
		Extensions:       slices.Clone(runtime.DefaultExtensions),
		MinCommentLength: DefaultMinCommentLength,
		LogLevel:         "info",
		LogFormat:        "text",
		ReadRetries:      DefaultReadRetries,
	}
}

// Load reads the YAML file at path on top of Defaults. Keys absent from the
// file keep their default; unknown keys are an error. The result is
// validated.
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if info.Size() > MaxFileSize {
		return Config{}, fmt.Errorf("config: %s is %d bytes, limit is %d", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data on top of Defaults and validates the result.
// An empty document yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Output == "" {
		return errors.New("output must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MinCommentLength < 0 {
		return fmt.Errorf("min_comment_length must be >= 0, got %d", c.MinCommentLength)
	}
	if c.ReadRetries < 0 {
		return fmt.Errorf("read_retries must be >= 0, got %d", c.ReadRetries)
	}
	if len(c.Extensions) == 0 {
		return errors.New("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if ext == "" {
			return errors.New("extensions: empty entry")
		}
		if strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extensions: %q must not start with a dot", ext)
		}
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("log_level %q is not one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("log_format %q is not one of %s", c.LogFormat, strings.Join(logFormats, ", "))
	}
	return nil
}

// Level maps LogLevel to a slog level. Unknown names map to Info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger described by the config, writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
