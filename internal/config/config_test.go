package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault tests the built-in configuration.
func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 10, cfg.GlobalFlushSeconds)
	assert.Equal(t, 15, cfg.GoalRenderSeconds)
	assert.Equal(t, 10, cfg.ResyncWindow)
}

// TestLoad tests a full config file.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/countingbot
global_flush_seconds: 30
goal_render_seconds: 5
resync_window: 25
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/countingbot", cfg.DataDir)
	assert.Equal(t, 30, cfg.GlobalFlushSeconds)
	assert.Equal(t, 5, cfg.GoalRenderSeconds)
	assert.Equal(t, 25, cfg.ResyncWindow)
}

// TestLoad_PartialBackfills tests that unset fields take defaults.
func TestLoad_PartialBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /tmp/cb\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cb", cfg.DataDir)
	assert.Equal(t, Default().GlobalFlushSeconds, cfg.GlobalFlushSeconds)
	assert.Equal(t, Default().GoalRenderSeconds, cfg.GoalRenderSeconds)
	assert.Equal(t, Default().ResyncWindow, cfg.ResyncWindow)
}

// TestLoad_Errors tests missing and malformed files.
func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

// TestPaths tests the document path helpers.
func TestPaths(t *testing.T) {
	cfg := Config{DataDir: "/srv/cb"}
	assert.Equal(t, filepath.Join("/srv/cb", "global"), cfg.GlobalDir())
	assert.Equal(t, filepath.Join("/srv/cb", "global", "stats.json"), cfg.StatsPath())
	assert.Equal(t, filepath.Join("/srv/cb", "global", "achievements.json"), cfg.AchievementsPath())
	assert.Equal(t, filepath.Join("/srv/cb", "global", "suggestions.json"), cfg.SuggestionsPath())
}
