package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// config mirrors the optional TOML config file. Flags given on the command
// line override it.
//
//	width = 1280
//	height = 720
//	interval = "500ms"
//	smoothing = 120
//	paused = false
//	capture = "frame.png"
//
//	[uniforms]
//	time = "iTime"
//	resolution = "iResolution"
type config struct {
	Width     int               `toml:"width"`
	Height    int               `toml:"height"`
	Interval  string            `toml:"interval"`
	Smoothing int               `toml:"smoothing"`
	Paused    bool              `toml:"paused"`
	Capture   string            `toml:"capture"`
	Uniforms  map[string]string `toml:"uniforms"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Interval != "" {
		if _, err := time.ParseDuration(cfg.Interval); err != nil {
			return cfg, fmt.Errorf("config %s: interval: %w", path, err)
		}
	}
	return cfg, nil
}

func (c config) interval() time.Duration {
	if c.Interval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Interval)
	return d
}
