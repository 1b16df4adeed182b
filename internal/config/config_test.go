package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Detect.Interval != time.Second {
		t.Errorf("interval = %v, want 1s", cfg.Detect.Interval)
	}
	if cfg.Detect.JPEGQuality != 80 {
		t.Errorf("jpeg quality = %d, want 80", cfg.Detect.JPEGQuality)
	}
	if cfg.Overlay.Width != 640 || cfg.Overlay.Height != 480 {
		t.Errorf("overlay = %dx%d, want 640x480", cfg.Overlay.Width, cfg.Overlay.Height)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing detector url", func(c *Config) { c.Detect.BaseURL = "" }},
		{"malformed detector url", func(c *Config) { c.Detect.BaseURL = "not a url" }},
		{"zero quality", func(c *Config) { c.Detect.JPEGQuality = 0 }},
		{"quality over 100", func(c *Config) { c.Detect.JPEGQuality = 101 }},
		{"zero interval", func(c *Config) { c.Detect.Interval = 0 }},
		{"bad color", func(c *Config) { c.Overlay.Color = "green" }},
		{"missing camera source", func(c *Config) { c.Camera.Source = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kiosk.yaml")
	content := `
detect:
  base_url: http://detector:5000
  interval: 2s
overlay:
  color: "#FF0000"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(&cfg, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Detect.BaseURL != "http://detector:5000" {
		t.Errorf("base url = %q", cfg.Detect.BaseURL)
	}
	if cfg.Detect.Interval != 2*time.Second {
		t.Errorf("interval = %v", cfg.Detect.Interval)
	}
	if cfg.Overlay.Color != "#FF0000" {
		t.Errorf("color = %q", cfg.Overlay.Color)
	}
	// untouched keys keep defaults
	if cfg.Detect.JPEGQuality != 80 {
		t.Errorf("jpeg quality = %d, want default 80", cfg.Detect.JPEGQuality)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := LoadFile(&cfg, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("KIOSK_DETECTOR_URL", "http://env-detector:5000")
	t.Setenv("KIOSK_DETECT_INTERVAL", "500ms")
	t.Setenv("KIOSK_JPEG_QUALITY", "65")
	t.Setenv("KIOSK_DISCARD_STALE", "false")
	t.Setenv("KIOSK_CAMERA_MAX_FPS", "not-a-number")

	cfg := Default()
	ApplyEnv(&cfg)

	if cfg.Detect.BaseURL != "http://env-detector:5000" {
		t.Errorf("base url = %q", cfg.Detect.BaseURL)
	}
	if cfg.Detect.Interval != 500*time.Millisecond {
		t.Errorf("interval = %v", cfg.Detect.Interval)
	}
	if cfg.Detect.JPEGQuality != 65 {
		t.Errorf("quality = %d", cfg.Detect.JPEGQuality)
	}
	if cfg.Detect.DiscardStale {
		t.Error("discard stale should be false")
	}
	if cfg.Camera.MaxFPS != Default().Camera.MaxFPS {
		t.Errorf("invalid env should keep default max fps, got %d", cfg.Camera.MaxFPS)
	}
}
