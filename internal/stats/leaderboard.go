package stats

import "sort"

// LeaderboardEntry is one row of the global leaderboard view.
type LeaderboardEntry struct {
	UserID int64
	Value  int64
}

// TopByCorrect returns up to n users ranked by accepted counts ("fame").
func (d *Data) TopByCorrect(n int) []LeaderboardEntry {
	return d.top(n, func(u *UserStats) int64 { return u.Correct })
}

// TopByIncorrect returns up to n users ranked by rejected counts ("shame").
func (d *Data) TopByIncorrect(n int) []LeaderboardEntry {
	return d.top(n, func(u *UserStats) int64 { return u.Incorrect })
}

// top ranks users by metric, descending, ties broken by user id so the
// ordering is deterministic.
func (d *Data) top(n int, metric func(*UserStats) int64) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(d.Users))
	for id, u := range d.Users {
		if v := metric(u); v > 0 {
			entries = append(entries, LeaderboardEntry{UserID: id, Value: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
