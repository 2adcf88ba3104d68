// Package stats tracks per-user counting statistics across all guilds.
// The whole dataset lives in one global JSON document.
package stats

import (
	"github.com/Gudu0/CountingBot/internal/docstore"
)

// UserStats holds one user's lifetime counting record.
//
// Invariant: BestStreak >= CurrentStreak; CurrentStreak resets to zero on
// any incorrect event.
type UserStats struct {
	Correct   int64 `json:"correct"`
	Incorrect int64 `json:"incorrect"`

	// Personal streak of consecutive correct counts, independent of the
	// guild-wide streak.
	CurrentStreak int64 `json:"currentStreak"`
	BestStreak    int64 `json:"bestStreak"`

	LastCorrectAt   int64 `json:"lastCorrectAtMs"`
	LastIncorrectAt int64 `json:"lastIncorrectAtMs"`

	// Total accepted counts; used as an achievement metric.
	PosCounts int64 `json:"posCounts"`
}

// OnCorrect records an accepted count at nowMs.
func (u *UserStats) OnCorrect(nowMs int64) {
	u.Correct++
	u.CurrentStreak++
	if u.CurrentStreak > u.BestStreak {
		u.BestStreak = u.CurrentStreak
	}
	u.LastCorrectAt = nowMs
}

// OnIncorrect records a rejected count at nowMs and resets the streak.
func (u *UserStats) OnIncorrect(nowMs int64) {
	u.Incorrect++
	u.CurrentStreak = 0
	u.LastIncorrectAt = nowMs
}

// Data is the global stats document, keyed by user id.
type Data struct {
	Users map[int64]*UserStats `json:"users"`
}

// NewData returns an empty stats document.
func NewData() *Data {
	return &Data{Users: make(map[int64]*UserStats)}
}

// GetOrCreate returns the stored entry for userID, creating it if missing.
// Use for mutation.
func (d *Data) GetOrCreate(userID int64) *UserStats {
	if d.Users == nil {
		d.Users = make(map[int64]*UserStats)
	}
	u, ok := d.Users[userID]
	if !ok {
		u = &UserStats{}
		d.Users[userID] = u
	}
	return u
}

// Lookup returns a copy of the user's stats, zeroed when absent.
// The copy is safe to hold after the store lock is released.
func (d *Data) Lookup(userID int64) UserStats {
	if u, ok := d.Users[userID]; ok {
		return *u
	}
	return UserStats{}
}

// Store is the durable global stats document.
type Store = docstore.Store[Data]

// OpenStore loads (or defaults) the stats document at path.
func OpenStore(path string) *Store {
	return docstore.Open(path, NewData)
}
