package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shaderview.toml")
	content := `
width = 1280
height = 720
interval = "250ms"
smoothing = 120
paused = true

[uniforms]
time = "iTime"
resolution = "iResolution"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
	if got := cfg.interval(); got != 250*time.Millisecond {
		t.Errorf("interval = %v, want 250ms", got)
	}
	if cfg.Smoothing != 120 {
		t.Errorf("smoothing = %d, want 120", cfg.Smoothing)
	}
	if !cfg.Paused {
		t.Error("paused = false, want true")
	}
	if cfg.Uniforms["time"] != "iTime" {
		t.Errorf("uniforms[time] = %q, want iTime", cfg.Uniforms["time"])
	}
}

func TestLoadConfigBadInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shaderview.toml")
	if err := os.WriteFile(path, []byte(`interval = "soon"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("loadConfig with bad interval: error = nil, want error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "gone.toml")); err == nil {
		t.Error("loadConfig on missing file: error = nil, want error")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config{Width: 1280, Interval: "250ms"}
	applyFlags(&cfg, 800, 600, time.Second, 0, false, "shaderview.png")

	// No flags were set on the command line in tests, so the config wins
	// where it has values and flag defaults fill the holes.
	if cfg.Width != 1280 {
		t.Errorf("width = %d, want config value 1280", cfg.Width)
	}
	if cfg.Height != 600 {
		t.Errorf("height = %d, want flag default 600", cfg.Height)
	}
	if cfg.Interval != "250ms" {
		t.Errorf("interval = %q, want config value 250ms", cfg.Interval)
	}
	if cfg.Capture != "shaderview.png" {
		t.Errorf("capture = %q, want flag default", cfg.Capture)
	}
}
