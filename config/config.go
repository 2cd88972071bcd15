// Package config loads and saves the settings of an LVGLS run.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvr-ai/go-strain/inference"
	"github.com/nvr-ai/go-strain/pipeline"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LogConfig selects the log output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Config holds every setting of a run.
type Config struct {
	// FrameRate is used when the input does not carry one.
	FrameRate float64 `yaml:"frameRate"`
	// Pipeline holds the stage settings.
	Pipeline pipeline.Config `yaml:"pipeline"`
	// Segmentation configures the ONNX segmenter.
	Segmentation inference.Config `yaml:"segmentation"`
	// Log selects the log output.
	Log LogConfig `yaml:"log"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		FrameRate:    30,
		Pipeline:     pipeline.DefaultConfig(),
		Segmentation: inference.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file.
//
// Keys missing from the file keep their default values. If the file does not exist the default
// configuration is returned.
//
// Arguments:
// - path: The YAML file.
//
// Returns:
// - The configuration.
// - An error if the file cannot be read, parsed or validated.
//
// @example
// cfg, err := config.LoadConfig("lvgls.yaml")
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file, creating its directory if needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}
	return nil
}

// Validate checks the settings that would otherwise fail deep inside a stage.
func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case c.FrameRate < 0:
		return errors.Errorf("frame rate must not be negative, got %g", c.FrameRate)
	case p.Preprocess.TrackingSize <= 0:
		return errors.Errorf("tracking size must be positive, got %d", p.Preprocess.TrackingSize)
	case p.Preprocess.CropFraction < 0 || p.Preprocess.CropFraction >= 0.5:
		return errors.Errorf("crop fraction must be in [0, 0.5), got %g", p.Preprocess.CropFraction)
	case p.Sampling.Points < 6:
		// The outer two samples are dropped and strain needs four tracked points.
		return errors.Errorf("sampling needs at least 6 points, got %d", p.Sampling.Points)
	case p.Strain.SplineSamples < 2:
		return errors.Errorf("strain needs at least 2 spline samples, got %d", p.Strain.SplineSamples)
	case p.Cycle.FilterOrder < 1:
		return errors.Errorf("filter order must be positive, got %d", p.Cycle.FilterOrder)
	case p.Cycle.CutoffHz <= 0:
		return errors.Errorf("cutoff must be positive, got %g", p.Cycle.CutoffHz)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// ParseLevel maps a level name to a slog level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("unknown log level %q", name)
	}
}

// NewLogger builds a logger writing to w with the configured level and format.
//
// @example
// logger, err := cfg.Log.NewLogger(os.Stderr)
// slog.SetDefault(logger)
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.Errorf("unknown log format %q", l.Format)
	}
}
