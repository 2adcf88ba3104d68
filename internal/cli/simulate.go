package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Gudu0/CountingBot/internal/achievements"
	"github.com/Gudu0/CountingBot/internal/config"
	"github.com/Gudu0/CountingBot/internal/counting"
	"github.com/Gudu0/CountingBot/internal/goals"
	"github.com/Gudu0/CountingBot/internal/guild"
	"github.com/Gudu0/CountingBot/internal/stats"
	"github.com/Gudu0/CountingBot/internal/transport"
)

// Transcript is the YAML input to the simulate command: a guild setup plus
// an ordered list of messages to feed through the validation engine.
type Transcript struct {
	GuildID         int64 `yaml:"guild_id"`
	ChannelID       int64 `yaml:"channel_id"`
	CooldownSeconds int   `yaml:"cooldown_seconds"`
	EnforceDelete   bool  `yaml:"enforce_delete"`
	GoalTarget      int64 `yaml:"goal_target"`
	StepMillis      int64 `yaml:"step_ms"`

	Messages []TranscriptMessage `yaml:"messages"`
}

// TranscriptMessage is one simulated inbound message.
type TranscriptMessage struct {
	AuthorID int64  `yaml:"author_id"`
	Body     string `yaml:"body"`
	Bot      bool   `yaml:"bot"`
	// DelayMillis overrides the transcript's step for this message.
	DelayMillis *int64 `yaml:"delay_ms"`
}

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	DataDir    string
	ConfigPath string
}

// NewSimulateCommand creates the simulate command. It replays a transcript
// through a fully wired engine backed by the in-memory connector, so rule
// changes can be exercised without a chat connection.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <transcript.yaml>",
		Short: "Replay a message transcript through the engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return runSimulate(cmd, opts, formatter, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "keep simulation documents here instead of a throwaway directory")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "process config file (resync window carries over)")

	return cmd
}

// simMessageResult is the engine's verdict on one transcript message.
type simMessageResult struct {
	Index    int    `json:"index"`
	AuthorID int64  `json:"authorId"`
	Body     string `json:"body"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	Number   int64  `json:"number,omitempty"`
}

// simReport is the full simulation result.
type simReport struct {
	Messages []simMessageResult `json:"messages"`

	LastNumber    int64 `json:"lastNumber"`
	StreakCurrent int64 `json:"streakCurrent"`
	StreakBest    int64 `json:"streakBest"`
	Deleted       int   `json:"deleted"`
}

func (r simReport) String() string {
	var sb strings.Builder
	for _, m := range r.Messages {
		fmt.Fprintf(&sb, "#%d author=%d body=%q -> %s", m.Index, m.AuthorID, m.Body, m.Decision)
		if m.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", m.Reason)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "final: last=%d streak=%d best=%d deleted=%d",
		r.LastNumber, r.StreakCurrent, r.StreakBest, r.Deleted)
	return sb.String()
}

func runSimulate(cmd *cobra.Command, opts *SimulateOptions, formatter *OutputFormatter, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	var ts Transcript
	if err := yaml.Unmarshal(raw, &ts); err != nil {
		return fmt.Errorf("parse transcript %s: %w", path, err)
	}
	if ts.GuildID == 0 || ts.ChannelID == 0 {
		return fmt.Errorf("transcript needs guild_id and channel_id")
	}
	if ts.StepMillis <= 0 {
		ts.StepMillis = 5000
	}

	procCfg := config.Default()
	if opts.ConfigPath != "" {
		procCfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		tmp, err := os.MkdirTemp("", "countingbot-sim-*")
		if err != nil {
			return fmt.Errorf("create simulation dir: %w", err)
		}
		defer os.RemoveAll(tmp)
		dataDir = tmp
	}

	report, err := replay(cmd, ts, dataDir, procCfg.ResyncWindow)
	if err != nil {
		return err
	}
	return formatter.Success(report)
}

// replay wires a throwaway engine and feeds the transcript through it.
func replay(cmd *cobra.Command, ts Transcript, dataDir string, resyncWindow int) (simReport, error) {
	ctx := cmd.Context()

	// Deterministic clock: starts at a fixed instant and advances by the
	// transcript's step between messages.
	cursor := time.UnixMilli(1_700_000_000_000)
	nowFn := func() time.Time { return cursor }

	reg := guild.NewRegistry(dataDir)
	defer reg.Close()

	statsStore := stats.OpenStore(filepath.Join(dataDir, "global", "stats.json"))
	defer statsStore.Close()
	achStore := achievements.OpenStore(filepath.Join(dataDir, "global", "achievements.json"))
	defer achStore.Close()

	conn := transport.NewMemory()
	ach := achievements.NewService(achStore, reg, statsStore, achievements.WithNow(nowFn))
	tracker := goals.NewTracker(reg, conn, goals.WithNow(nowFn))
	engine := counting.New(reg, statsStore, ach, tracker, conn,
		counting.WithNow(nowFn), counting.WithResyncWindow(resyncWindow))

	b := reg.Get(ts.GuildID)
	b.SetCountingChannel(ts.ChannelID)
	b.SetCooldownSeconds(ts.CooldownSeconds)
	b.SetEnforceDelete(ts.EnforceDelete)

	if ts.GoalTarget > 0 {
		if err := tracker.SetGoal(ctx, ts.GuildID, ts.GoalTarget, 0, nil); err != nil {
			return simReport{}, err
		}
	}

	var report simReport
	nextID := int64(1)

	for i, m := range ts.Messages {
		step := ts.StepMillis
		if m.DelayMillis != nil {
			step = *m.DelayMillis
		}
		cursor = cursor.Add(time.Duration(step) * time.Millisecond)

		msg := transport.Message{
			GuildID:     ts.GuildID,
			ChannelID:   ts.ChannelID,
			AuthorID:    m.AuthorID,
			MessageID:   nextID,
			AuthorIsBot: m.Bot,
			Body:        m.Body,
		}
		nextID++
		conn.Seed(ts.ChannelID, msg)

		out := engine.HandleMessage(ctx, msg)
		report.Messages = append(report.Messages, simMessageResult{
			Index:    i,
			AuthorID: m.AuthorID,
			Body:     m.Body,
			Decision: decisionName(out.Decision),
			Reason:   string(out.Reason),
			Number:   out.Number,
		})
	}

	tracker.RenderPass(ctx)

	b.State.View(func(st *guild.CountingState) {
		report.LastNumber = st.LastNumber
		report.StreakCurrent = st.StreakCurrent
		report.StreakBest = st.StreakBest
	})
	report.Deleted = len(conn.Deleted())

	return report, nil
}

func decisionName(d counting.Decision) string {
	switch d {
	case counting.DecisionAccept:
		return "accept"
	case counting.DecisionReject:
		return "reject"
	default:
		return "ignored"
	}
}
