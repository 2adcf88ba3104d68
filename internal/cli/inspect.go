package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Gudu0/CountingBot/internal/config"
	"github.com/Gudu0/CountingBot/internal/guild"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	DataDir    string
	ConfigPath string
}

// NewInspectCommand creates the inspect command. It reads documents straight
// off disk without starting any flushers, so it is safe to run next to a
// live process.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [guild-id]",
		Short: "Dump the document tree",
		Long:  "Without arguments, lists known guilds and global document summaries. With a guild id, dumps that guild's config, counting state, and goal documents.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath != "" {
				cfg, err := config.Load(opts.ConfigPath)
				if err != nil {
					return err
				}
				opts.DataDir = cfg.DataDir
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid guild id %q", args[0])
				}
				return runInspectGuild(opts, formatter, id)
			}
			return runInspectOverview(opts, formatter)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "data", "root of the document tree")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "process config file; its data_dir wins over --data-dir")

	return cmd
}

// overview is the top-level inspect report.
type overview struct {
	DataDir string       `json:"dataDir"`
	Guilds  []int64      `json:"guilds"`
	Global  []docSummary `json:"global"`
}

type docSummary struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Bytes   int64  `json:"bytes"`
}

func (o overview) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "data dir: %s\n", o.DataDir)
	fmt.Fprintf(&sb, "guilds on disk: %d\n", len(o.Guilds))
	for _, id := range o.Guilds {
		fmt.Fprintf(&sb, "  %d\n", id)
	}
	sb.WriteString("global documents:\n")
	for _, d := range o.Global {
		if d.Present {
			fmt.Fprintf(&sb, "  %s (%d bytes)\n", d.Name, d.Bytes)
		} else {
			fmt.Fprintf(&sb, "  %s (missing)\n", d.Name)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func runInspectOverview(opts *InspectOptions, formatter *OutputFormatter) error {
	reg := guild.NewRegistry(opts.DataDir)
	ids, err := reg.GuildsOnDisk()
	if err != nil {
		return fmt.Errorf("list guilds: %w", err)
	}

	cfg := config.Default()
	cfg.DataDir = opts.DataDir

	report := overview{DataDir: opts.DataDir, Guilds: ids}
	for _, path := range []string{cfg.StatsPath(), cfg.AchievementsPath(), cfg.SuggestionsPath()} {
		d := docSummary{Name: filepath.Base(path)}
		if info, err := os.Stat(path); err == nil {
			d.Present = true
			d.Bytes = info.Size()
		}
		report.Global = append(report.Global, d)
	}

	return formatter.Success(report)
}

// guildReport is the per-guild inspect report. Raw documents are embedded so
// json output round-trips exactly what is on disk.
type guildReport struct {
	GuildID int64           `json:"guildId"`
	Config  json.RawMessage `json:"config,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
	Goals   json.RawMessage `json:"goals,omitempty"`
}

func (r guildReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "guild %d\n", r.GuildID)
	for _, doc := range []struct {
		name string
		raw  json.RawMessage
	}{
		{"config.json", r.Config},
		{"state.json", r.State},
		{"goals.json", r.Goals},
	} {
		if doc.raw == nil {
			fmt.Fprintf(&sb, "--- %s: missing\n", doc.name)
			continue
		}
		fmt.Fprintf(&sb, "--- %s\n%s\n", doc.name, strings.TrimRight(string(doc.raw), "\n"))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func runInspectGuild(opts *InspectOptions, formatter *OutputFormatter, guildID int64) error {
	reg := guild.NewRegistry(opts.DataDir)
	dir := reg.GuildDir(guildID)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return formatter.Failure(fmt.Sprintf("no documents for guild %d under %s", guildID, opts.DataDir))
	}

	report := guildReport{GuildID: guildID}
	report.Config = readDoc(filepath.Join(dir, "config.json"))
	report.State = readDoc(filepath.Join(dir, "state.json"))
	report.Goals = readDoc(filepath.Join(dir, "goals.json"))

	return formatter.Success(report)
}

// readDoc returns the document's raw JSON, or nil when absent or unreadable.
func readDoc(path string) json.RawMessage {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if !json.Valid(raw) {
		return nil
	}
	return json.RawMessage(raw)
}
