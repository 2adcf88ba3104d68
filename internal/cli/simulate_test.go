package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTranscript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestSimulate_CleanRun tests an all-accept transcript end to end.
func TestSimulate_CleanRun(t *testing.T) {
	path := writeTranscript(t, `
guild_id: 1
channel_id: 100
messages:
  - author_id: 10
    body: "1"
  - author_id: 11
    body: "2"
  - author_id: 10
    body: "3"
`)

	out, err := runCommand(t, "simulate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `#0 author=10 body="1" -> accept`)
	assert.Contains(t, out, `#2 author=10 body="3" -> accept`)
	assert.Contains(t, out, "final: last=3 streak=3 best=3 deleted=0")
}

// TestSimulate_RejectReasons tests that rule violations surface with their
// reasons.
func TestSimulate_RejectReasons(t *testing.T) {
	path := writeTranscript(t, `
guild_id: 1
channel_id: 100
messages:
  - author_id: 10
    body: "1"
  - author_id: 10
    body: "2"
  - author_id: 11
    body: "9"
  - author_id: 11
    body: "banana"
`)

	out, err := runCommand(t, "simulate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "reject (same user twice)")
	assert.Contains(t, out, "reject (wrong number)")
	assert.Contains(t, out, "reject (not a strict count)")
	assert.Contains(t, out, "final: last=1 streak=0 best=1")
}

// TestSimulate_Cooldown tests that transcript timing drives the cooldown
// rule.
func TestSimulate_Cooldown(t *testing.T) {
	path := writeTranscript(t, `
guild_id: 1
channel_id: 100
cooldown_seconds: 10
step_ms: 1000
messages:
  - author_id: 10
    body: "1"
  - author_id: 11
    body: "2"
  - author_id: 10
    body: "3"
  - author_id: 10
    body: "3"
    delay_ms: 60000
`)

	out, err := runCommand(t, "simulate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "reject (cooldown)")
	assert.Contains(t, out, "final: last=3 streak=3 best=3")
}

// TestSimulate_EnforceDelete tests that rejected messages are counted as
// deleted.
func TestSimulate_EnforceDelete(t *testing.T) {
	path := writeTranscript(t, `
guild_id: 1
channel_id: 100
enforce_delete: true
messages:
  - author_id: 10
    body: "1"
  - author_id: 11
    body: "7"
`)

	out, err := runCommand(t, "simulate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted=1")
}

// TestSimulate_JSONOutput tests the machine-readable format.
func TestSimulate_JSONOutput(t *testing.T) {
	path := writeTranscript(t, `
guild_id: 1
channel_id: 100
messages:
  - author_id: 10
    body: "1"
`)

	out, err := runCommand(t, "--format", "json", "simulate", path)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

// TestSimulate_BadInput tests validation failures.
func TestSimulate_BadInput(t *testing.T) {
	_, err := runCommand(t, "simulate", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeTranscript(t, "channel_id: 100\n")
	_, err = runCommand(t, "simulate", path)
	assert.Error(t, err, "guild_id is required")
}

// TestSimulate_KeepsDataDir tests that --data-dir leaves the documents on
// disk for inspection.
func TestSimulate_KeepsDataDir(t *testing.T) {
	dataDir := t.TempDir()
	path := writeTranscript(t, `
guild_id: 1
channel_id: 100
messages:
  - author_id: 10
    body: "1"
`)

	_, err := runCommand(t, "simulate", path, "--data-dir", dataDir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dataDir, "guilds", "1", "state.json"))
	assert.NoError(t, statErr)
}
