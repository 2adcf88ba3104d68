// Package goals maintains each guild's optional counting goal and keeps a
// progress display message up to date in the counting channel.
//
// Rendering is decoupled from message events: accept/reject paths only set
// a cheap dirty hint, and a periodic pass re-renders guilds whose progress
// may have changed.
package goals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Gudu0/CountingBot/internal/guild"
	"github.com/Gudu0/CountingBot/internal/transport"
)

// DefaultRenderPeriod is how often the render pass wakes up.
const DefaultRenderPeriod = 15 * time.Second

// Tracker owns goal definitions and the render loop.
type Tracker struct {
	guilds *guild.Registry
	conn   transport.Connector
	nowFn  func() time.Time
	period time.Duration

	mu    sync.Mutex
	dirty map[int64]bool

	startOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithNow overrides the tracker clock. Used by tests.
func WithNow(nowFn func() time.Time) TrackerOption {
	return func(t *Tracker) { t.nowFn = nowFn }
}

// WithRenderPeriod overrides the render pass interval.
func WithRenderPeriod(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.period = d }
}

// NewTracker wires the goal tracker to the registry and transport.
func NewTracker(guilds *guild.Registry, conn transport.Connector, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		guilds: guilds,
		conn:   conn,
		nowFn:  time.Now,
		period: DefaultRenderPeriod,
		dirty:  make(map[int64]bool),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MarkDirty hints that the guild's progress may have changed. Cheap; called
// after every accepted or rejected count and after resync.
func (t *Tracker) MarkDirty(guildID int64) {
	t.mu.Lock()
	t.dirty[guildID] = true
	t.mu.Unlock()
}

// SetGoal replaces the guild's goal definition and forces a re-render.
// Target must be positive.
func (t *Tracker) SetGoal(ctx context.Context, guildID, target, setByUserID int64, deadline *time.Time) error {
	if target <= 0 {
		return fmt.Errorf("goal target must be positive, got %d", target)
	}

	b := t.guilds.Get(guildID)
	b.Goals.Update(func(gs *guild.GoalState) {
		gs.Active = true
		gs.Target = target
		gs.SetByUserID = setByUserID
		gs.SetAt = t.nowFn().UnixMilli()
		gs.DeadlineAt = nil
		if deadline != nil {
			ms := deadline.UnixMilli()
			gs.DeadlineAt = &ms
		}
		// Force re-render even if the count has not moved.
		gs.LastRenderedNumber = math.MinInt64
	})

	slog.Info("goal set", "guild_id", guildID, "target", target, "set_by", setByUserID)
	t.MarkDirty(guildID)
	t.renderGuild(ctx, guildID)
	return nil
}

// ClearGoal deactivates the guild's goal and forces a re-render.
func (t *Tracker) ClearGoal(ctx context.Context, guildID int64) {
	b := t.guilds.Get(guildID)
	b.Goals.Update(func(gs *guild.GoalState) {
		gs.Active = false
		gs.Target = 0
		gs.SetByUserID = 0
		gs.SetAt = t.nowFn().UnixMilli()
		gs.DeadlineAt = nil
		gs.LastRenderedNumber = math.MinInt64
	})

	slog.Info("goal cleared", "guild_id", guildID)
	t.MarkDirty(guildID)
	t.renderGuild(ctx, guildID)
}

// RenderData computes the guild's current progress view. Idempotent.
func (t *Tracker) RenderData(guildID int64) RenderData {
	b := t.guilds.Get(guildID)

	var gs guild.GoalState
	b.Goals.View(func(s *guild.GoalState) { gs = *s })

	var lastNumber int64
	b.State.View(func(s *guild.CountingState) { lastNumber = s.LastNumber })

	return renderData(gs.Active, gs.Target, lastNumber, gs.SetByUserID, gs.DeadlineAt)
}

// Start launches the periodic render pass. Safe to call once.
func (t *Tracker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		go t.run(ctx)
	})
}

// Stop halts the render loop. Only meaningful after Start.
func (t *Tracker) Stop() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			t.RenderPass(ctx)
		}
	}
}

// RenderPass renders every guild flagged dirty since the previous pass.
// Exposed so tests and the simulate command can drive rendering without a
// timer.
func (t *Tracker) RenderPass(ctx context.Context) {
	t.mu.Lock()
	ids := make([]int64, 0, len(t.dirty))
	for id := range t.dirty {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		t.renderGuild(ctx, id)
	}
}

// renderGuild brings the guild's display message in line with live state.
// Skips the edit when neither the dirty flag nor the observed count moved.
func (t *Tracker) renderGuild(ctx context.Context, guildID int64) {
	b := t.guilds.Get(guildID)
	cfg := b.ConfigSnapshot()
	if cfg.CountingChannelID == 0 {
		return
	}

	var gs guild.GoalState
	b.Goals.View(func(s *guild.GoalState) { gs = *s })

	var lastNumber int64
	b.State.View(func(s *guild.CountingState) { lastNumber = s.LastNumber })

	t.mu.Lock()
	dirty := t.dirty[guildID]
	t.mu.Unlock()

	if !dirty && gs.LastRenderedNumber == lastNumber {
		return
	}

	body := renderData(gs.Active, gs.Target, lastNumber, gs.SetByUserID, gs.DeadlineAt).Body()

	messageID := gs.MessageID
	if messageID != 0 {
		err := t.conn.EditMessage(ctx, cfg.CountingChannelID, messageID, body)
		if errors.Is(err, transport.ErrUnknownMessage) {
			// Display message was deleted out from under us; recreate it
			// instead of failing forever.
			slog.Warn("goal message missing, recreating", "guild_id", guildID)
			messageID = 0
		} else if err != nil {
			slog.Error("goal message edit failed", "guild_id", guildID, "error", err)
			return
		}
	}

	if messageID == 0 {
		id, err := t.conn.SendMessage(ctx, cfg.CountingChannelID, body)
		if err != nil {
			slog.Error("goal message create failed", "guild_id", guildID, "error", err)
			return
		}
		messageID = id
		slog.Info("goal message created", "guild_id", guildID, "message_id", id)
	}

	b.Goals.Update(func(s *guild.GoalState) {
		s.MessageID = messageID
		s.LastRenderedNumber = lastNumber
	})

	t.mu.Lock()
	delete(t.dirty, guildID)
	t.mu.Unlock()
}
