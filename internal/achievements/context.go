// Package achievements evaluates a static catalog of declarative unlock
// conditions against point-in-time snapshots of counting state and user
// stats. Unlocks are idempotent: the first timestamp wins, forever.
package achievements

// Trigger is the event kind that causes catalog evaluation.
type Trigger int

const (
	// TriggerValidCount fires after an accepted count.
	TriggerValidCount Trigger = iota + 1
	// TriggerInvalidCount fires after a rejected count.
	TriggerInvalidCount
)

// CountingSnapshot is the read-only view of a guild's counting state at
// evaluation time.
type CountingSnapshot struct {
	LastNumber    int64
	StreakCurrent int64
	StreakBest    int64
}

// StatsSnapshot is the read-only view of the evaluated user's stats.
type StatsSnapshot struct {
	Correct       int64
	Incorrect     int64
	CurrentStreak int64
	BestStreak    int64
	PosCounts     int64
}

// Context is the immutable evaluation input passed to every condition.
// It is built per trigger and never persisted.
type Context struct {
	GuildID int64
	UserID  int64
	Now     int64 // unix milliseconds

	Counting CountingSnapshot
	Stats    StatsSnapshot
}
