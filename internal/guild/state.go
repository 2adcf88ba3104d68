// Package guild holds everything that is scoped to one community: its
// configuration, its counting state, its goal state, and the registry that
// lazily creates and caches the per-guild bundle.
package guild

import "math"

// CountingState is a guild's durable counting position.
//
// Mutated only by the validation engine and the resync algorithm, both of
// which hold the guild lock (Bundle.Lock) for the whole decide-and-apply
// sequence.
//
// Invariant: StreakBest >= StreakCurrent.
type CountingState struct {
	// LastNumber is the last accepted count; -1 means uninitialized.
	LastNumber    int64 `json:"lastNumber"`
	LastUserID    int64 `json:"lastUserId"`
	LastMessageID int64 `json:"lastMessageId"`

	StreakCurrent int64 `json:"streakCurrent"`
	StreakBest    int64 `json:"streakBest"`

	// LastValidAt maps user id to the unix-millisecond timestamp of their
	// last accepted count. Drives the per-user cooldown.
	LastValidAt map[int64]int64 `json:"lastValidAt"`
}

// NewCountingState returns the uninitialized state.
func NewCountingState() *CountingState {
	return &CountingState{
		LastNumber:  -1,
		LastValidAt: make(map[int64]int64),
	}
}

// Reset returns the state to uninitialized, keeping cooldown history.
func (s *CountingState) Reset() {
	s.LastNumber = -1
	s.LastUserID = 0
	s.LastMessageID = 0
}

// GoalState is a guild's durable goal definition plus render bookkeeping.
type GoalState struct {
	// MessageID is the display message the tracker edits; 0 means none yet.
	MessageID int64 `json:"goalMessageId"`

	Active      bool   `json:"active"`
	Target      int64  `json:"target"`
	SetByUserID int64  `json:"setByUserId"`
	SetAt       int64  `json:"setAtMillis"`
	DeadlineAt  *int64 `json:"deadlineAtMillis,omitempty"`

	// LastRenderedNumber is the LastNumber observed at the previous render;
	// the tracker skips edits when it hasn't moved.
	LastRenderedNumber int64 `json:"lastRenderedNumber"`
}

// NewGoalState returns an inactive goal whose sentinel forces the first
// render.
func NewGoalState() *GoalState {
	return &GoalState{LastRenderedNumber: math.MinInt64}
}

// Config is a guild's admin-set configuration document.
type Config struct {
	// CountingChannelID is the channel the engine watches; 0 disables the
	// feature for the guild.
	CountingChannelID int64 `json:"countingChannelId"`

	// CooldownSeconds is the minimum gap between two valid counts from the
	// same user.
	CooldownSeconds int `json:"cooldownSeconds"`

	// EnforceDelete makes the engine delete rejected messages.
	EnforceDelete bool `json:"enforceDelete"`

	// EnableLogs raises per-decision log lines to info level.
	EnableLogs bool `json:"enableLogs"`
}

// DefaultCooldownSeconds gates how fast one user may repeat valid counts
// unless an admin overrides it.
const DefaultCooldownSeconds = 2

// NewConfig returns the default per-guild configuration.
func NewConfig() *Config {
	return &Config{CooldownSeconds: DefaultCooldownSeconds}
}
