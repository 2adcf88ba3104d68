package guild

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gudu0/CountingBot/internal/docstore"
)

// Flush cadences for the per-guild documents. Counting state changes on
// every accepted message, so it flushes more often.
const (
	stateFlushInterval = 5 * time.Second
	goalsFlushInterval = 10 * time.Second
	cfgFlushInterval   = 10 * time.Second
)

// Bundle is everything that lives per guild: the three durable documents
// plus the lock that serializes the counting decision.
type Bundle struct {
	GuildID int64

	Config *docstore.Store[Config]
	State  *docstore.Store[CountingState]
	Goals  *docstore.Store[GoalState]

	// mu is the guild lock. The validation engine holds it across the whole
	// decide-and-apply sequence so two near-simultaneous messages can never
	// race on the same expected-number snapshot.
	mu sync.Mutex

	// enforceDelete is the runtime view of Config.EnforceDelete. It can be
	// downgraded without a config write racing the hot path.
	enforceDelete atomic.Bool
}

// Lock acquires the guild lock.
func (b *Bundle) Lock() { b.mu.Lock() }

// Unlock releases the guild lock.
func (b *Bundle) Unlock() { b.mu.Unlock() }

// ConfigSnapshot returns a copy of the guild's configuration.
func (b *Bundle) ConfigSnapshot() Config {
	var cfg Config
	b.Config.View(func(c *Config) { cfg = *c })
	return cfg
}

// EnforceDeleteRuntime reports whether rejected messages should be deleted
// right now. This can lag Config.EnforceDelete after a permission downgrade.
func (b *Bundle) EnforceDeleteRuntime() bool {
	return b.enforceDelete.Load()
}

// SetCountingChannel updates the watched channel. Takes effect on the next
// processed message.
func (b *Bundle) SetCountingChannel(channelID int64) {
	b.Config.Update(func(c *Config) { c.CountingChannelID = channelID })
}

// SetCooldownSeconds updates the per-user cooldown. Negative values clamp
// to zero.
func (b *Bundle) SetCooldownSeconds(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	b.Config.Update(func(c *Config) { c.CooldownSeconds = seconds })
}

// SetEnforceDelete updates both the persisted flag and the runtime flag.
func (b *Bundle) SetEnforceDelete(enabled bool) {
	b.Config.Update(func(c *Config) { c.EnforceDelete = enabled })
	b.enforceDelete.Store(enabled)
}

// SetEnableLogs toggles per-decision logging for the guild.
func (b *Bundle) SetEnableLogs(enabled bool) {
	b.Config.Update(func(c *Config) { c.EnableLogs = enabled })
}

// DowngradeEnforceDelete disables delete enforcement after a permission
// failure and persists the downgrade so the bot doesn't fail the same way
// on the next boot.
func (b *Bundle) DowngradeEnforceDelete() {
	b.enforceDelete.Store(false)
	b.Config.Update(func(c *Config) { c.EnforceDelete = false })
	slog.Warn("delete enforcement disabled: missing permission", "guild_id", b.GuildID)
}

// Close flushes and stops the bundle's document flushers.
func (b *Bundle) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{b.Config, b.State, b.Goals} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Registry lazily creates and caches one Bundle per guild id.
//
// Get is safe under concurrent calls: the loser of a creation race receives
// the winner's instance. Bundles are never evicted; memory growth is bounded
// by guild count.
type Registry struct {
	dataDir string

	mu      sync.Mutex
	bundles map[int64]*Bundle
}

// NewRegistry creates a registry rooted at dataDir (documents live under
// dataDir/guilds/<id>/).
func NewRegistry(dataDir string) *Registry {
	return &Registry{
		dataDir: dataDir,
		bundles: make(map[int64]*Bundle),
	}
}

// GuildDir returns the document directory for a guild.
func (r *Registry) GuildDir(guildID int64) string {
	return filepath.Join(r.dataDir, "guilds", strconv.FormatInt(guildID, 10))
}

// Get returns the guild's bundle, constructing and publishing it on first
// reference.
func (r *Registry) Get(guildID int64) *Bundle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bundles[guildID]; ok {
		return b
	}

	slog.Info("creating guild bundle", "guild_id", guildID)
	dir := r.GuildDir(guildID)

	b := &Bundle{
		GuildID: guildID,
		Config:  docstore.Open(filepath.Join(dir, "config.json"), NewConfig),
		State:   docstore.Open(filepath.Join(dir, "state.json"), NewCountingState),
		Goals:   docstore.Open(filepath.Join(dir, "goals.json"), NewGoalState),
	}
	b.enforceDelete.Store(b.ConfigSnapshot().EnforceDelete)

	b.State.StartAutoFlush(stateFlushInterval)
	b.Goals.StartAutoFlush(goalsFlushInterval)
	b.Config.StartAutoFlush(cfgFlushInterval)

	r.bundles[guildID] = b
	return b
}

// Loaded returns the ids of all cached bundles, sorted.
func (r *Registry) Loaded() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.bundles))
	for id := range r.bundles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GuildsOnDisk lists guild ids that already have a document directory.
// Used for boot resync, so the bot never fabricates folders for guilds it
// has only just seen.
func (r *Registry) GuildsOnDisk() ([]int64, error) {
	entries, err := os.ReadDir(filepath.Join(r.dataDir, "guilds"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []int64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil {
			continue // non-numeric folders are not guild dirs
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Close flushes and stops every cached bundle.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, b := range r.bundles {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
