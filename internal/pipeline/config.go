package pipeline

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the pipeline tuning knobs. Everything here is policy rather
// than business logic: concurrency bounds, retry budget, QC thresholds, and
// assembly styling. Defaults suit a single local GPU plus one hosted video
// backend; deployments override via a YAML file.
type Config struct {
	ImageConcurrency int `yaml:"image_concurrency"`
	VideoConcurrency int `yaml:"video_concurrency"`

	MaxRetries             int     `yaml:"max_retries"`
	BackoffBaseSec         float64 `yaml:"backoff_base_sec"`
	VideoAttemptTimeoutSec float64 `yaml:"video_attempt_timeout_sec"`

	QCPassThreshold      float64 `yaml:"qc_pass_threshold"`
	QCMinDurationSec     float64 `yaml:"qc_min_duration_sec"`
	QCMaxDurationSec     float64 `yaml:"qc_max_duration_sec"`
	MissingShotPenalty   float64 `yaml:"missing_shot_penalty"`
	FallbackShotPenalty  float64 `yaml:"fallback_shot_penalty"`
	ShortDurationPenalty float64 `yaml:"short_duration_penalty"`
	LongDurationPenalty  float64 `yaml:"long_duration_penalty"`

	OutputWidth  int `yaml:"output_width"`
	OutputHeight int `yaml:"output_height"`
	FPS          int `yaml:"fps"`

	KenBurnsZoom  float64 `yaml:"ken_burns_zoom"`
	TextWindowSec float64 `yaml:"text_window_sec"`
	MusicVolume   float64 `yaml:"music_volume"`
	MusicDir      string  `yaml:"music_dir"`

	DefaultTargetCount int `yaml:"default_target_count"`
}

// DefaultConfig returns the baseline tuning used when no file is provided.
func DefaultConfig() Config {
	return Config{
		ImageConcurrency:       3,
		VideoConcurrency:       6,
		MaxRetries:             2,
		BackoffBaseSec:         1.0,
		VideoAttemptTimeoutSec: 300,
		QCPassThreshold:        0.7,
		QCMinDurationSec:       9.0,
		QCMaxDurationSec:       17.0,
		MissingShotPenalty:     0.15,
		FallbackShotPenalty:    0.05,
		ShortDurationPenalty:   0.2,
		LongDurationPenalty:    0.1,
		OutputWidth:            1080,
		OutputHeight:           1920,
		FPS:                    30,
		KenBurnsZoom:           1.08,
		TextWindowSec:          3.0,
		MusicVolume:            0.2,
		DefaultTargetCount:     3,
	}
}

// LoadConfig overlays a YAML tuning file onto the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("pipeline: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("pipeline: parse config: %w", err)
	}
	// errgroup.SetLimit(0) would block every scheduled task, so a zero or
	// negative bound from the file degrades to serial rendering instead.
	if cfg.ImageConcurrency < 1 {
		cfg.ImageConcurrency = 1
	}
	if cfg.VideoConcurrency < 1 {
		cfg.VideoConcurrency = 1
	}
	return cfg, nil
}

// Backoff returns the sleep before retrying after the given zero-based failed
// attempt: base * 2^attempt.
func (c Config) Backoff(attempt int) time.Duration {
	base := c.BackoffBaseSec
	if base <= 0 {
		base = 1.0
	}
	return time.Duration(base * math.Pow(2, float64(attempt)) * float64(time.Second))
}

// VideoAttemptTimeout returns the wall-clock bound for one video render
// attempt.
func (c Config) VideoAttemptTimeout() time.Duration {
	sec := c.VideoAttemptTimeoutSec
	if sec <= 0 {
		sec = 300
	}
	return time.Duration(sec * float64(time.Second))
}
