package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gudu0/CountingBot/internal/guild"
	"github.com/Gudu0/CountingBot/internal/stats"
)

func seedDataDir(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()

	reg := guild.NewRegistry(dataDir)
	b := reg.Get(42)
	b.SetCountingChannel(100)
	b.State.Update(func(st *guild.CountingState) { st.LastNumber = 17 })
	require.NoError(t, reg.Close())

	statsStore := stats.OpenStore(filepath.Join(dataDir, "global", "stats.json"))
	statsStore.Update(func(d *stats.Data) { d.GetOrCreate(7).Correct = 3 })
	require.NoError(t, statsStore.Close())

	return dataDir
}

// TestInspect_Overview tests the top-level listing.
func TestInspect_Overview(t *testing.T) {
	dataDir := seedDataDir(t)

	out, err := runCommand(t, "inspect", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "guilds on disk: 1")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "stats.json")
	assert.Contains(t, out, "achievements.json (missing)")
}

// TestInspect_Guild tests the per-guild document dump.
func TestInspect_Guild(t *testing.T) {
	dataDir := seedDataDir(t)

	out, err := runCommand(t, "inspect", "42", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "guild 42")
	assert.Contains(t, out, `"countingChannelId": 100`)
	assert.Contains(t, out, `"lastNumber": 17`)
}

// TestInspect_UnknownGuild tests the missing-directory report.
func TestInspect_UnknownGuild(t *testing.T) {
	dataDir := seedDataDir(t)

	out, err := runCommand(t, "inspect", "999", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "no documents for guild 999")
}

// TestInspect_ConfigFile tests that --config supplies the data directory.
func TestInspect_ConfigFile(t *testing.T) {
	dataDir := seedDataDir(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_dir: "+dataDir+"\n"), 0o644))

	out, err := runCommand(t, "inspect", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "guilds on disk: 1")
}

// TestInspect_BadGuildArg tests argument validation.
func TestInspect_BadGuildArg(t *testing.T) {
	_, err := runCommand(t, "inspect", "abc", "--data-dir", t.TempDir())
	assert.Error(t, err)
}
