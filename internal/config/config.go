// Package config loads the process configuration file. Per-guild settings
// are domain data and live in the guild document store, not here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration.
type Config struct {
	// DataDir is the root of the document tree (guilds/ and global/).
	DataDir string `yaml:"data_dir"`

	// GlobalFlushSeconds is the flush cadence for the global documents.
	GlobalFlushSeconds int `yaml:"global_flush_seconds"`

	// GoalRenderSeconds is the goal tracker's render pass interval.
	GoalRenderSeconds int `yaml:"goal_render_seconds"`

	// ResyncWindow is how many recent messages the recovery scan reads.
	ResyncWindow int `yaml:"resync_window"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir:            "data",
		GlobalFlushSeconds: 10,
		GoalRenderSeconds:  15,
		ResyncWindow:       10,
	}
}

// Load reads a YAML config file and fills unset fields from Default.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	if cfg.GlobalFlushSeconds <= 0 {
		cfg.GlobalFlushSeconds = Default().GlobalFlushSeconds
	}
	if cfg.GoalRenderSeconds <= 0 {
		cfg.GoalRenderSeconds = Default().GoalRenderSeconds
	}
	if cfg.ResyncWindow <= 0 {
		cfg.ResyncWindow = Default().ResyncWindow
	}
	return cfg, nil
}

// GlobalDir returns the directory holding the global documents.
func (c Config) GlobalDir() string {
	return filepath.Join(c.DataDir, "global")
}

// StatsPath returns the global stats document path.
func (c Config) StatsPath() string {
	return filepath.Join(c.GlobalDir(), "stats.json")
}

// AchievementsPath returns the global achievements document path.
func (c Config) AchievementsPath() string {
	return filepath.Join(c.GlobalDir(), "achievements.json")
}

// SuggestionsPath returns the global suggestions document path.
func (c Config) SuggestionsPath() string {
	return filepath.Join(c.GlobalDir(), "suggestions.json")
}
