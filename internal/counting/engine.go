package counting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Gudu0/CountingBot/internal/achievements"
	"github.com/Gudu0/CountingBot/internal/goals"
	"github.com/Gudu0/CountingBot/internal/guild"
	"github.com/Gudu0/CountingBot/internal/stats"
	"github.com/Gudu0/CountingBot/internal/transport"
)

// Decision classifies the outcome of one processed message.
type Decision int

const (
	// DecisionIgnored means the message was not for this engine: wrong
	// channel, unconfigured guild, or an automation account.
	DecisionIgnored Decision = iota
	// DecisionAccept means the count advanced.
	DecisionAccept
	// DecisionReject means the count did not advance.
	DecisionReject
)

// RejectReason explains a DecisionReject.
type RejectReason string

const (
	ReasonNone      RejectReason = ""
	ReasonNotACount RejectReason = "not a strict count"
	ReasonWrongNum  RejectReason = "wrong number"
	ReasonSameUser  RejectReason = "same user twice"
	ReasonCooldown  RejectReason = "cooldown"
)

// Outcome reports what the engine decided for one message.
type Outcome struct {
	Decision Decision
	Reason   RejectReason
	// Number is the parsed value on accept, or the expected value on a
	// wrong-number reject.
	Number int64
}

// DefaultResyncWindow is how many recent messages the recovery scan reads.
const DefaultResyncWindow = 10

// Engine consumes inbound chat events and drives all counting state.
//
// All of the decide-and-apply work for one guild runs under that guild's
// lock: two near-simultaneous messages in the same counting channel can
// never be evaluated against the same expected-number snapshot. Different
// guilds proceed concurrently without contention. The engine never holds a
// lock while waiting on the transport.
type Engine struct {
	guilds       *guild.Registry
	stats        *stats.Store
	achievements *achievements.Service
	goals        *goals.Tracker
	conn         transport.Connector

	nowFn        func() time.Time
	resyncWindow int
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the engine clock. Used by tests.
func WithNow(nowFn func() time.Time) Option {
	return func(e *Engine) { e.nowFn = nowFn }
}

// WithResyncWindow overrides the history window used by resync.
func WithResyncWindow(n int) Option {
	return func(e *Engine) { e.resyncWindow = n }
}

// New wires the validation engine to its collaborators.
func New(guilds *guild.Registry, statsStore *stats.Store, ach *achievements.Service,
	tracker *goals.Tracker, conn transport.Connector, opts ...Option) *Engine {

	e := &Engine{
		guilds:       guilds,
		stats:        statsStore,
		achievements: ach,
		goals:        tracker,
		conn:         conn,
		nowFn:        time.Now,
		resyncWindow: DefaultResyncWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleMessage runs the full decision algorithm for one inbound message.
func (e *Engine) HandleMessage(ctx context.Context, msg transport.Message) Outcome {
	if msg.AuthorIsBot {
		return Outcome{Decision: DecisionIgnored}
	}

	b := e.guilds.Get(msg.GuildID)
	cfg := b.ConfigSnapshot()
	if cfg.CountingChannelID == 0 || cfg.CountingChannelID != msg.ChannelID {
		return Outcome{Decision: DecisionIgnored}
	}

	value, isCount := ParseCount(msg.Body)
	nowMs := e.nowFn().UnixMilli()

	b.Lock()
	out := e.decide(b, cfg, msg, value, isCount, nowMs)
	b.Unlock()

	e.logDecision(b.GuildID, cfg, out, msg)

	// Delete enforcement happens after the critical section; it is
	// best-effort and must never delay or abort the state mutation.
	if out.Decision == DecisionReject && b.EnforceDeleteRuntime() {
		e.deleteRejected(ctx, b, msg)
	}

	return out
}

// decide evaluates the rules and applies all side effects. Caller holds the
// guild lock.
func (e *Engine) decide(b *guild.Bundle, cfg guild.Config, msg transport.Message,
	value int64, isCount bool, nowMs int64) Outcome {

	if !isCount {
		e.markIncorrect(b, msg.AuthorID, nowMs)
		return Outcome{Decision: DecisionReject, Reason: ReasonNotACount}
	}

	var lastNumber, lastUserID, lastValidAt int64
	var hasLastValid bool
	b.State.View(func(st *guild.CountingState) {
		lastNumber = st.LastNumber
		lastUserID = st.LastUserID
		lastValidAt, hasLastValid = st.LastValidAt[msg.AuthorID]
	})

	// Uninitialized: the first strict count starts the sequence.
	if lastNumber == -1 {
		e.accept(b, msg, value, nowMs)
		return Outcome{Decision: DecisionAccept, Number: value}
	}

	expected := lastNumber + 1

	if value != expected {
		// Saboteur hook: a repeat of the number that was just accepted,
		// sent by somebody else, means the original counter misled them.
		if value == lastNumber && lastUserID != 0 && msg.AuthorID != lastUserID {
			e.achievements.UnlockByID(b.GuildID, lastUserID, achievements.IDCauseFail)
		}
		e.markIncorrect(b, msg.AuthorID, nowMs)
		return Outcome{Decision: DecisionReject, Reason: ReasonWrongNum, Number: expected}
	}

	if msg.AuthorID == lastUserID {
		e.markIncorrect(b, msg.AuthorID, nowMs)
		return Outcome{Decision: DecisionReject, Reason: ReasonSameUser}
	}

	// Cooldown applies only between this user's own valid counts. It is a
	// soft rate limit: no incorrect counter bump, no streak reset.
	if hasLastValid && cfg.CooldownSeconds > 0 {
		minGapMs := int64(cfg.CooldownSeconds) * 1000
		if nowMs-lastValidAt < minGapMs {
			return Outcome{Decision: DecisionReject, Reason: ReasonCooldown}
		}
	}

	e.accept(b, msg, value, nowMs)
	return Outcome{Decision: DecisionAccept, Number: value}
}

// accept applies every ACCEPT side effect. Caller holds the guild lock.
func (e *Engine) accept(b *guild.Bundle, msg transport.Message, value, nowMs int64) {
	b.State.Update(func(st *guild.CountingState) {
		st.LastNumber = value
		st.LastUserID = msg.AuthorID
		st.LastMessageID = msg.MessageID
		if st.LastValidAt == nil {
			st.LastValidAt = make(map[int64]int64)
		}
		st.LastValidAt[msg.AuthorID] = nowMs

		st.StreakCurrent++
		if st.StreakCurrent > st.StreakBest {
			st.StreakBest = st.StreakCurrent
		}
	})

	e.stats.Update(func(d *stats.Data) {
		u := d.GetOrCreate(msg.AuthorID)
		u.OnCorrect(nowMs)
		u.PosCounts++
	})

	e.achievements.OnTrigger(achievements.TriggerValidCount, b.GuildID, msg.AuthorID)

	var goalHit bool
	b.Goals.View(func(gs *guild.GoalState) {
		goalHit = gs.Active && value == gs.Target
	})
	if goalHit {
		e.achievements.UnlockByID(b.GuildID, msg.AuthorID, achievements.IDGoalWinner)
	}

	e.goals.MarkDirty(b.GuildID)
}

// markIncorrect applies the REJECT side effects shared by every non-cooldown
// rejection. Caller holds the guild lock.
func (e *Engine) markIncorrect(b *guild.Bundle, authorID, nowMs int64) {
	e.stats.Update(func(d *stats.Data) {
		d.GetOrCreate(authorID).OnIncorrect(nowMs)
	})

	b.State.Update(func(st *guild.CountingState) {
		st.StreakCurrent = 0
	})

	e.achievements.OnTrigger(achievements.TriggerInvalidCount, b.GuildID, authorID)
	e.goals.MarkDirty(b.GuildID)
}

// HandleDelete reacts to a message being removed from the counting channel.
// Deleting the authoritative count (or any message while the authoritative
// id is unknown) makes the continuation ambiguous: the streak resets and
// state is re-derived from history rather than guessed.
//
// The history fetch runs without holding any lock; callers that must not
// block should dispatch delete events on their own goroutine.
func (e *Engine) HandleDelete(ctx context.Context, ev transport.DeleteEvent) {
	b := e.guilds.Get(ev.GuildID)
	cfg := b.ConfigSnapshot()
	if cfg.CountingChannelID == 0 || cfg.CountingChannelID != ev.ChannelID {
		return
	}

	b.Lock()
	var authoritative bool
	b.State.View(func(st *guild.CountingState) {
		authoritative = st.LastMessageID == 0 || ev.MessageID == st.LastMessageID
	})
	if authoritative {
		b.State.Update(func(st *guild.CountingState) {
			st.StreakCurrent = 0
		})
	}
	b.Unlock()

	if !authoritative {
		return
	}

	slog.Warn("authoritative count message deleted, resyncing",
		"guild_id", ev.GuildID, "message_id", ev.MessageID)
	e.goals.MarkDirty(ev.GuildID)

	if res, err := e.ResyncNow(ctx, ev.GuildID); err != nil {
		slog.Error("post-delete resync failed", "guild_id", ev.GuildID, "error", err)
	} else if res.Found {
		slog.Info("post-delete resync complete",
			"guild_id", ev.GuildID, "last", res.Number, "user_id", res.UserID)
	} else {
		slog.Warn("post-delete resync found no valid count", "guild_id", ev.GuildID)
	}
}

func (e *Engine) deleteRejected(ctx context.Context, b *guild.Bundle, msg transport.Message) {
	err := e.conn.DeleteMessage(ctx, msg.ChannelID, msg.MessageID)
	switch {
	case err == nil:
	case errors.Is(err, transport.ErrMissingPermission):
		b.DowngradeEnforceDelete()
	default:
		// Best-effort: log and move on, never retry synchronously.
		slog.Error("delete of rejected message failed",
			"guild_id", b.GuildID, "message_id", msg.MessageID, "error", err)
	}
}

func (e *Engine) logDecision(guildID int64, cfg guild.Config, out Outcome, msg transport.Message) {
	if out.Decision == DecisionIgnored {
		return
	}

	level := slog.LevelDebug
	if cfg.EnableLogs {
		level = slog.LevelInfo
	}

	verdict := "accept"
	if out.Decision == DecisionReject {
		verdict = "reject"
	}
	slog.Log(context.Background(), level, "counting decision",
		"guild_id", guildID,
		"verdict", verdict,
		"reason", string(out.Reason),
		"author_id", msg.AuthorID,
		"body", msg.Body,
	)
}
