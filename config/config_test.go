package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30.0, cfg.FrameRate)
	assert.Equal(t, 568, cfg.Pipeline.Preprocess.TrackingSize)
	assert.Equal(t, 0.1, cfg.Pipeline.Preprocess.CropFraction)
	assert.Equal(t, 30, cfg.Pipeline.Sampling.Points)
	assert.Equal(t, 10, cfg.Pipeline.Strain.SplineSamples)
	assert.Equal(t, 3.0, cfg.Pipeline.Cycle.CutoffHz)
	assert.Equal(t, 41, cfg.Pipeline.Motion.Params.WinSize)
	assert.Equal(t, 112, cfg.Segmentation.Model.InputWidth)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lvgls.yaml")

	want := DefaultConfig()
	want.FrameRate = 50
	want.Pipeline.Sampling.Points = 24
	want.Pipeline.Marker.Radius = 5
	want.Segmentation.ModelPath = "/models/seg.onnx"
	want.Log.Format = "json"

	require.NoError(t, SaveConfig(want, path))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("frameRate: 25\npipeline:\n  border:\n    branchThreshold: 30\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 25.0, cfg.FrameRate)
	assert.Equal(t, 30, cfg.Pipeline.Border.BranchThreshold)
	assert.Equal(t, 40, cfg.Pipeline.Border.SkeletonThreshold)
	assert.Equal(t, 55, cfg.Pipeline.Border.BaseEraseStartRow)
	assert.Equal(t, 568, cfg.Pipeline.Preprocess.TrackingSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfigRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "pipeline: [1, 2"},
		{"bad crop", "pipeline:\n  preprocess:\n    cropFraction: 0.6\n"},
		{"too few points", "pipeline:\n  sampling:\n    points: 2\n"},
		{"too few tracked points", "pipeline:\n  sampling:\n    points: 5\n"},
		{"zero tracking size", "pipeline:\n  preprocess:\n    trackingSize: 0\n"},
		{"unknown level", "log:\n  level: loud\n"},
		{"unknown format", "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateSamplingBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Sampling.Points = 6
	assert.NoError(t, cfg.Validate())

	cfg.Pipeline.Sampling.Points = 5
	assert.Error(t, cfg.Validate())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "lvgls", -18.5)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"lvgls":-18.5`)

	_, err = LogConfig{Format: "xml"}.NewLogger(&buf)
	assert.Error(t, err)
}
