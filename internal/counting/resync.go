package counting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gudu0/CountingBot/internal/guild"
)

// ResyncResult reports what the recovery scan found.
type ResyncResult struct {
	Found     bool
	Number    int64
	UserID    int64
	MessageID int64
}

// ResyncNow re-derives the guild's authoritative counting position from
// recent channel history.
//
// The scan reads the most recent messages (newest first) and adopts the
// first one that parses as a strict count; sequence validity is not checked
// here, only syntax. When nothing in the window parses, the state resets to
// uninitialized. A history-fetch failure leaves state untouched and returns
// the error.
func (e *Engine) ResyncNow(ctx context.Context, guildID int64) (ResyncResult, error) {
	b := e.guilds.Get(guildID)
	cfg := b.ConfigSnapshot()
	if cfg.CountingChannelID == 0 {
		slog.Warn("resync skipped: no counting channel configured", "guild_id", guildID)
		return ResyncResult{}, nil
	}

	// Fetch outside every lock; the transport may be slow or down.
	history, err := e.conn.RecentMessages(ctx, cfg.CountingChannelID, e.resyncWindow)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("fetch history for guild %d: %w", guildID, err)
	}

	var res ResyncResult
	for _, m := range history {
		if n, ok := ParseCount(m.Body); ok {
			res = ResyncResult{Found: true, Number: n, UserID: m.AuthorID, MessageID: m.MessageID}
			break
		}
	}

	b.Lock()
	b.State.Update(func(st *guild.CountingState) {
		if res.Found {
			st.LastNumber = res.Number
			st.LastUserID = res.UserID
			st.LastMessageID = res.MessageID
		} else {
			st.Reset()
		}
	})
	b.Unlock()

	e.goals.MarkDirty(guildID)

	if res.Found {
		slog.Info("resync adopted last valid count",
			"guild_id", guildID, "last", res.Number,
			"user_id", res.UserID, "message_id", res.MessageID)
	} else {
		slog.Warn("resync found no valid count in recent history", "guild_id", guildID)
	}
	return res, nil
}

// ResyncAllOnDisk resyncs every guild that already has a document directory.
// Run at process start so the engine never trusts pre-crash state blindly.
// Guilds without a configured counting channel are skipped.
func (e *Engine) ResyncAllOnDisk(ctx context.Context) {
	ids, err := e.guilds.GuildsOnDisk()
	if err != nil {
		slog.Error("boot resync: listing guild dirs failed", "error", err)
		return
	}
	if len(ids) == 0 {
		slog.Warn("boot resync: no guild folders on disk, skipping")
		return
	}

	slog.Info("boot resync starting", "guilds", len(ids))
	for _, id := range ids {
		if e.guilds.Get(id).ConfigSnapshot().CountingChannelID == 0 {
			slog.Warn("boot resync: guild has no counting channel configured", "guild_id", id)
			continue
		}
		if _, err := e.ResyncNow(ctx, id); err != nil {
			slog.Error("boot resync failed for guild", "guild_id", id, "error", err)
		}
	}
}
