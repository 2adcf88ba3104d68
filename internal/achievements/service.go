package achievements

import (
	"log/slog"
	"time"

	"github.com/Gudu0/CountingBot/internal/docstore"
	"github.com/Gudu0/CountingBot/internal/guild"
	"github.com/Gudu0/CountingBot/internal/stats"
)

// UserAchievements maps achievement id to first-unlock timestamp (unix ms).
// Once written, an entry never changes.
type UserAchievements struct {
	Unlocked map[string]int64 `json:"unlocked"`
}

// IsUnlocked reports whether id has been unlocked.
func (u *UserAchievements) IsUnlocked(id string) bool {
	_, ok := u.Unlocked[id]
	return ok
}

func (u *UserAchievements) unlock(id string, nowMs int64) {
	if u.Unlocked == nil {
		u.Unlocked = make(map[string]int64)
	}
	u.Unlocked[id] = nowMs
}

// State is the global achievements document, keyed by user id.
type State struct {
	Users map[int64]*UserAchievements `json:"users"`
}

// NewState returns an empty achievements document.
func NewState() *State {
	return &State{Users: make(map[int64]*UserAchievements)}
}

// GetOrCreate returns the stored entry for userID, creating it if missing.
func (s *State) GetOrCreate(userID int64) *UserAchievements {
	if s.Users == nil {
		s.Users = make(map[int64]*UserAchievements)
	}
	u, ok := s.Users[userID]
	if !ok {
		u = &UserAchievements{Unlocked: make(map[string]int64)}
		s.Users[userID] = u
	}
	return u
}

// Store is the durable global achievements document.
type Store = docstore.Store[State]

// OpenStore loads (or defaults) the achievements document at path.
func OpenStore(path string) *Store {
	return docstore.Open(path, NewState)
}

// Service runs the rule engine: it builds context snapshots and unlocks
// catalog entries.
//
// Achievements are global; the counting snapshot comes from the triggering
// guild. The counting and stats snapshots are taken under their own locks,
// independently; a small staleness window between the two is acceptable
// since unlocking is not safety-critical.
type Service struct {
	store  *Store
	guilds *guild.Registry
	stats  *stats.Store
	defs   []Definition
	nowFn  func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNow overrides the service clock. Used by tests.
func WithNow(nowFn func() time.Time) ServiceOption {
	return func(s *Service) { s.nowFn = nowFn }
}

// NewService wires the rule engine to its documents.
func NewService(store *Store, guilds *guild.Registry, statsStore *stats.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		guilds: guilds,
		stats:  statsStore,
		defs:   Catalog(),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Definitions returns the catalog in display order.
func (s *Service) Definitions() []Definition { return s.defs }

// UserAchievements returns a copy of the user's unlocked set with
// first-unlock timestamps.
func (s *Service) UserAchievements(userID int64) map[string]int64 {
	out := make(map[string]int64)
	s.store.View(func(st *State) {
		if u, ok := st.Users[userID]; ok {
			for id, at := range u.Unlocked {
				out[id] = at
			}
		}
	})
	return out
}

// OnTrigger evaluates every catalog definition whose trigger set contains
// kind and which the user has not already unlocked.
func (s *Service) OnTrigger(kind Trigger, guildID, userID int64) {
	ctx := s.snapshot(guildID, userID)

	s.store.Update(func(st *State) {
		ua := st.GetOrCreate(userID)
		for _, def := range s.defs {
			if !def.TriggeredBy(kind) || ua.IsUnlocked(def.ID) {
				continue
			}
			if def.Condition(ctx) {
				ua.unlock(def.ID, ctx.Now)
				if def.LogOnUnlock {
					slog.Info("achievement unlocked",
						"id", def.ID, "title", def.Title,
						"user_id", userID, "guild_id", guildID)
				}
			}
		}
	})
}

// UnlockByID unlocks a specific catalog id unconditionally. Unknown ids are
// ignored; already-unlocked ids keep their original timestamp.
func (s *Service) UnlockByID(guildID, userID int64, achievementID string) {
	var def *Definition
	for i := range s.defs {
		if s.defs[i].ID == achievementID {
			def = &s.defs[i]
			break
		}
	}
	if def == nil {
		slog.Warn("unlock requested for unknown achievement", "id", achievementID)
		return
	}

	nowMs := s.nowFn().UnixMilli()
	s.store.Update(func(st *State) {
		ua := st.GetOrCreate(userID)
		if ua.IsUnlocked(def.ID) {
			return
		}
		ua.unlock(def.ID, nowMs)
		if def.LogOnUnlock {
			slog.Info("achievement unlocked",
				"id", def.ID, "title", def.Title,
				"user_id", userID, "guild_id", guildID)
		}
	})
}

// snapshot builds the evaluation context, reading each document under its
// own lock.
func (s *Service) snapshot(guildID, userID int64) *Context {
	ctx := &Context{
		GuildID: guildID,
		UserID:  userID,
		Now:     s.nowFn().UnixMilli(),
	}

	b := s.guilds.Get(guildID)
	b.State.View(func(st *guild.CountingState) {
		ctx.Counting = CountingSnapshot{
			LastNumber:    st.LastNumber,
			StreakCurrent: st.StreakCurrent,
			StreakBest:    st.StreakBest,
		}
	})

	s.stats.View(func(d *stats.Data) {
		u := d.Lookup(userID)
		ctx.Stats = StatsSnapshot{
			Correct:       u.Correct,
			Incorrect:     u.Incorrect,
			CurrentStreak: u.CurrentStreak,
			BestStreak:    u.BestStreak,
			PosCounts:     u.PosCounts,
		}
	})

	return ctx
}
