package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ImageConcurrency != 3 || cfg.VideoConcurrency != 6 {
		t.Fatalf("concurrency = %d/%d, want 3/6", cfg.ImageConcurrency, cfg.VideoConcurrency)
	}
	if cfg.QCPassThreshold != 0.7 {
		t.Fatalf("qc threshold = %v, want 0.7", cfg.QCPassThreshold)
	}
	if cfg.MaxRetries != 2 {
		t.Fatalf("max retries = %d, want 2", cfg.MaxRetries)
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	data := "image_concurrency: 8\nqc_pass_threshold: 0.9\nmusic_dir: /srv/music\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ImageConcurrency != 8 {
		t.Fatalf("image concurrency = %d, want overridden 8", cfg.ImageConcurrency)
	}
	if cfg.QCPassThreshold != 0.9 {
		t.Fatalf("qc threshold = %v, want overridden 0.9", cfg.QCPassThreshold)
	}
	if cfg.MusicDir != "/srv/music" {
		t.Fatalf("music dir = %q, want /srv/music", cfg.MusicDir)
	}
	// Untouched keys keep their defaults.
	if cfg.VideoConcurrency != 6 {
		t.Fatalf("video concurrency = %d, want default 6", cfg.VideoConcurrency)
	}
}

func TestLoadConfigClampsConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	data := "image_concurrency: 0\nvideo_concurrency: -2\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	// A zero limit would stall every scheduled render task.
	if cfg.ImageConcurrency != 1 {
		t.Fatalf("image concurrency = %d, want clamped 1", cfg.ImageConcurrency)
	}
	if cfg.VideoConcurrency != 1 {
		t.Fatalf("video concurrency = %d, want clamped 1", cfg.VideoConcurrency)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("LoadConfig() with missing file returned nil error")
	}
}

func TestBackoff(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tc := range tests {
		if got := cfg.Backoff(tc.attempt); got != tc.want {
			t.Fatalf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}

	cfg.BackoffBaseSec = 0.5
	if got := cfg.Backoff(1); got != time.Second {
		t.Fatalf("Backoff(1) with 0.5s base = %v, want 1s", got)
	}
}
