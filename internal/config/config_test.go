package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/guygrubbs/phd-fits/internal/impact"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "phdfits.yaml")

	want := Default()
	want.Analysis.NoiseRatio = 0.1
	want.Analysis.MinRegionSize = 25
	want.Paths.DataDir = "/srv/bench"
	want.Logging.Level = "debug"
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
}

func TestLoadOverlaysPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phdfits.yaml")
	partial := "analysis:\n  noise_ratio: 0.2\nlogging:\n  level: warn\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Analysis.NoiseRatio)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// Unmentioned keys keep their defaults.
	assert.Equal(t, 10, cfg.Analysis.MinRegionSize)
	assert.True(t, cfg.Logging.Console)
	assert.Equal(t, "data", cfg.Paths.DataDir)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phdfits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PHDFITS_DATA_DIR", "/mnt/bench")
	t.Setenv("PHDFITS_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/mnt/bench", cfg.Paths.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"inverted adc window", func(c *Config) { c.Analysis.ADCBinMin = 250 }, "not ordered"},
		{"unknown adc mode", func(c *Config) { c.Analysis.ADCNormalization = "mean" }, "adc normalization"},
		{"inverted contrast", func(c *Config) { c.Analysis.ContrastLow = 99.5 }, "contrast window"},
		{"unknown frame mode", func(c *Config) { c.Analysis.FrameNormalization = "sigmoid" }, "frame normalization"},
		{"negative density", func(c *Config) { c.Analysis.MinDataDensity = -0.1 }, "min data density"},
		{"zero file size", func(c *Config) { c.Analysis.MaxFileSizeMB = 0 }, "max file size"},
		{"zero group size", func(c *Config) { c.Analysis.MinGroupSize = 0 }, "min group size"},
		{"correlation above one", func(c *Config) { c.Analysis.CorrelationThreshold = 1.5 }, "correlation threshold"},
		{"zero noise ratio", func(c *Config) { c.Analysis.NoiseRatio = 0 }, "noise ratio"},
		{"zero region size", func(c *Config) { c.Analysis.MinRegionSize = 0 }, "min region size"},
		{"flat detector", func(c *Config) { c.Analysis.Detector.Height = 0 }, "detector"},
		{"zero target rate", func(c *Config) { c.Analysis.TargetCountRate = 0 }, "target count rate"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "chatty" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDetectorParams(t *testing.T) {
	cfg := Default()
	cfg.Analysis.NoiseRatio = 0.08
	cfg.Analysis.MinRegionSize = 20

	params := cfg.Analysis.DetectorParams()
	assert.Equal(t, impact.Params{
		NoiseRatio:    0.08,
		MinRegionSize: 20,
		Geometry:      impact.DefaultGeometry(),
	}, params)
}

func TestBuildLogger(t *testing.T) {
	t.Run("bad level", func(t *testing.T) {
		_, err := Logging{Level: "chatty"}.BuildLogger()
		require.Error(t, err)
	})

	t.Run("disabled", func(t *testing.T) {
		log, err := Logging{Level: "info"}.BuildLogger()
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("file sink", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "phdfits.log")
		log, err := Logging{Level: "debug", File: path}.BuildLogger()
		require.NoError(t, err)

		log.Info("bench up")
		require.NoError(t, log.Sync())
		require.FileExists(t, path)
	})
}
