// Package config carries the analysis, path, and logging settings of the
// bench tools: YAML on disk, defaults in code, environment overrides for
// the deployment knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/guygrubbs/phd-fits/internal/frame"
	"github.com/guygrubbs/phd-fits/internal/impact"
)

// Config is the root of the tool configuration.
type Config struct {
	Analysis Analysis `yaml:"analysis"`
	Paths    Paths    `yaml:"paths"`
	Logging  Logging  `yaml:"logging"`
}

// Analysis holds the numeric knobs of the analysis passes.
type Analysis struct {
	// ADC window kept by spectrum clipping. Channels below the window
	// carry electronic noise, channels above it saturate.
	ADCBinMin float64 `yaml:"adc_bin_min"`
	ADCBinMax float64 `yaml:"adc_bin_max"`

	// Spectrum normalization mode: area, peak, or none.
	ADCNormalization string `yaml:"adc_normalization"`

	// Display contrast window for frames, percentiles 0-100.
	ContrastLow  float64 `yaml:"contrast_percentile_low"`
	ContrastHigh float64 `yaml:"contrast_percentile_high"`

	FrameNormalization frame.NormalizationMode `yaml:"frame_normalization"`

	// Quality gates applied during discovery.
	MinDataDensity float64 `yaml:"min_data_density"`
	MaxFileSizeMB  float64 `yaml:"max_file_size_mb"`

	// Grouping and comparison thresholds.
	MinGroupSize         int     `yaml:"min_group_size"`
	CorrelationThreshold float64 `yaml:"correlation_threshold"`

	// Impact region detection.
	NoiseRatio    float64 `yaml:"noise_ratio"`
	MinRegionSize int     `yaml:"min_region_size"`

	Detector impact.Geometry `yaml:"detector"`

	// Rate map normalization target in counts per second.
	TargetCountRate float64 `yaml:"target_count_rate"`
}

// Paths holds the working directories and scan patterns.
type Paths struct {
	DataDir    string `yaml:"data_dir"`
	ResultsDir string `yaml:"results_dir"`
	CacheDir   string `yaml:"cache_dir"`
	LogDir     string `yaml:"log_dir"`

	FITSPattern string `yaml:"fits_pattern"`
	MapPattern  string `yaml:"map_pattern"`
	PHDPattern  string `yaml:"phd_pattern"`
}

// Logging selects the log level and sinks. With Console false and no file,
// logging is disabled entirely.
type Logging struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file,omitempty"`
	Console bool   `yaml:"console"`
}

// adcModes are the accepted spectrum normalization modes.
var adcModes = []string{"area", "peak", "none"}

// Default returns the bench defaults.
func Default() *Config {
	return &Config{
		Analysis: Analysis{
			ADCBinMin:            11,
			ADCBinMax:            245,
			ADCNormalization:     "area",
			ContrastLow:          1,
			ContrastHigh:         99,
			FrameNormalization:   frame.ModePercentile,
			MinDataDensity:       0,
			MaxFileSizeMB:        100,
			MinGroupSize:         2,
			CorrelationThreshold: 0.5,
			NoiseRatio:           0.05,
			MinRegionSize:        10,
			Detector:             impact.DefaultGeometry(),
			TargetCountRate:      100,
		},
		Paths: Paths{
			DataDir:     "data",
			ResultsDir:  "results",
			CacheDir:    "cache",
			LogDir:      "logs",
			FITSPattern: "*.fits",
			MapPattern:  "*.map",
			PHDPattern:  "*.phd",
		},
		Logging: Logging{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads a YAML config, layering it over the defaults. A missing file
// is not an error: the defaults apply unchanged. Environment overrides win
// over both.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies the deployment environment variables.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("PHDFITS_DATA_DIR"); dir != "" {
		c.Paths.DataDir = dir
	}
	if level := os.Getenv("PHDFITS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks ranges and mode names, returning the first problem found.
func (c *Config) Validate() error {
	a := c.Analysis

	if a.ADCBinMin >= a.ADCBinMax {
		return fmt.Errorf("adc window %g..%g is not ordered", a.ADCBinMin, a.ADCBinMax)
	}
	if !contains(adcModes, a.ADCNormalization) {
		return fmt.Errorf("adc normalization %q (valid: %v)", a.ADCNormalization, adcModes)
	}
	if a.ContrastLow < 0 || a.ContrastHigh > 100 || a.ContrastLow >= a.ContrastHigh {
		return fmt.Errorf("contrast window %g..%g out of range", a.ContrastLow, a.ContrastHigh)
	}
	if !knownFrameMode(a.FrameNormalization) {
		return fmt.Errorf("frame normalization %q (valid: %v)", a.FrameNormalization, frame.KnownModes())
	}
	if a.MinDataDensity < 0 || a.MinDataDensity > 1 {
		return fmt.Errorf("min data density %g outside 0..1", a.MinDataDensity)
	}
	if a.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max file size %g MB must be positive", a.MaxFileSizeMB)
	}
	if a.MinGroupSize < 1 {
		return fmt.Errorf("min group size %d must be at least 1", a.MinGroupSize)
	}
	if a.CorrelationThreshold < 0 || a.CorrelationThreshold > 1 {
		return fmt.Errorf("correlation threshold %g outside 0..1", a.CorrelationThreshold)
	}
	if a.NoiseRatio <= 0 || a.NoiseRatio >= 1 {
		return fmt.Errorf("noise ratio %g outside (0, 1)", a.NoiseRatio)
	}
	if a.MinRegionSize < 1 {
		return fmt.Errorf("min region size %d must be at least 1", a.MinRegionSize)
	}
	if a.Detector.Width < 1 || a.Detector.Height < 1 {
		return fmt.Errorf("detector %dx%d must be positive", a.Detector.Width, a.Detector.Height)
	}
	if a.TargetCountRate <= 0 {
		return fmt.Errorf("target count rate %g must be positive", a.TargetCountRate)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Logging.Level, err)
	}
	return nil
}

// DetectorParams assembles the impact detection parameters.
func (a Analysis) DetectorParams() impact.Params {
	return impact.Params{
		NoiseRatio:    a.NoiseRatio,
		MinRegionSize: a.MinRegionSize,
		Geometry:      a.Detector,
	}
}

// BuildLogger constructs the zap logger the Logging section describes.
func (l Logging) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", l.Level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = nil
	if l.Console {
		cfg.OutputPaths = append(cfg.OutputPaths, "stderr")
	}
	if l.File != "" {
		if err := os.MkdirAll(filepath.Dir(l.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, l.File)
	}
	if len(cfg.OutputPaths) == 0 {
		return zap.NewNop(), nil
	}
	return cfg.Build()
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func knownFrameMode(m frame.NormalizationMode) bool {
	for _, known := range frame.KnownModes() {
		if m == known {
			return true
		}
	}
	return false
}
