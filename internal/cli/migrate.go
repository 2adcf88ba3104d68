package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/Gudu0/CountingBot/internal/achievements"
	"github.com/Gudu0/CountingBot/internal/config"
	"github.com/Gudu0/CountingBot/internal/docstore"
	"github.com/Gudu0/CountingBot/internal/guild"
	"github.com/Gudu0/CountingBot/internal/stats"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	DataDir string
	DBPath  string
}

// NewMigrateCommand creates the migrate command. It imports an older sqlite
// deployment into the JSON document tree. Re-running is safe: rows merge
// into the existing documents, and already-unlocked achievements keep their
// original timestamps.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import a legacy sqlite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return runMigrate(opts, formatter)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "data", "root of the document tree")
	cmd.Flags().StringVar(&opts.DBPath, "db", "counting.db", "path to the legacy sqlite database")

	return cmd
}

// migrateReport summarizes what the import touched.
type migrateReport struct {
	Guilds       int `json:"guilds"`
	Users        int `json:"users"`
	Achievements int `json:"achievements"`
}

func (r migrateReport) String() string {
	return fmt.Sprintf("migrated %d guild(s), %d user stat row(s), %d achievement unlock(s)",
		r.Guilds, r.Users, r.Achievements)
}

func runMigrate(opts *MigrateOptions, formatter *OutputFormatter) error {
	if _, err := os.Stat(opts.DBPath); err != nil {
		return fmt.Errorf("open legacy database: %w", err)
	}

	db, err := sql.Open("sqlite3", opts.DBPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open legacy database: %w", err)
	}
	defer db.Close()

	var report migrateReport

	if report.Guilds, err = migrateGuilds(db, opts.DataDir); err != nil {
		return fmt.Errorf("migrate guild_state: %w", err)
	}

	cfg := config.Default()
	cfg.DataDir = opts.DataDir

	if report.Users, err = migrateUserStats(db, cfg.StatsPath()); err != nil {
		return fmt.Errorf("migrate user_stats: %w", err)
	}
	if report.Achievements, err = migrateAchievements(db, cfg.AchievementsPath()); err != nil {
		return fmt.Errorf("migrate achievements: %w", err)
	}

	return formatter.Success(report)
}

// migrateGuilds reads the guild_state table into per-guild config and state
// documents.
func migrateGuilds(db *sql.DB, dataDir string) (int, error) {
	rows, err := db.Query(`SELECT guild_id, counting_channel_id, last_number, last_user_id,
		streak_current, streak_best FROM guild_state`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	reg := guild.NewRegistry(dataDir)
	count := 0

	for rows.Next() {
		var guildID, channelID, lastNumber, lastUserID, streakCur, streakBest int64
		if err := rows.Scan(&guildID, &channelID, &lastNumber, &lastUserID, &streakCur, &streakBest); err != nil {
			return count, err
		}

		dir := reg.GuildDir(guildID)
		cfgStore := docstore.Open(filepath.Join(dir, "config.json"), guild.NewConfig)
		stateStore := docstore.Open(filepath.Join(dir, "state.json"), guild.NewCountingState)

		cfgStore.Update(func(c *guild.Config) {
			if c.CountingChannelID == 0 {
				c.CountingChannelID = channelID
			}
		})
		stateStore.Update(func(st *guild.CountingState) {
			st.LastNumber = lastNumber
			st.LastUserID = lastUserID
			st.StreakCurrent = streakCur
			if streakBest > st.StreakBest {
				st.StreakBest = streakBest
			}
		})

		if err := cfgStore.Close(); err != nil {
			return count, err
		}
		if err := stateStore.Close(); err != nil {
			return count, err
		}
		count++
	}
	return count, rows.Err()
}

// migrateUserStats reads the user_stats table into the global stats document.
// Legacy values only ever raise the stored counters, so replaying the import
// cannot shrink stats accumulated since the first run.
func migrateUserStats(db *sql.DB, path string) (int, error) {
	rows, err := db.Query(`SELECT user_id, correct, incorrect, best_streak, pos_counts FROM user_stats`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	store := stats.OpenStore(path)
	count := 0

	for rows.Next() {
		var userID, correct, incorrect, bestStreak, posCounts int64
		if err := rows.Scan(&userID, &correct, &incorrect, &bestStreak, &posCounts); err != nil {
			return count, err
		}

		store.Update(func(d *stats.Data) {
			u := d.GetOrCreate(userID)
			u.Correct = max64(u.Correct, correct)
			u.Incorrect = max64(u.Incorrect, incorrect)
			u.BestStreak = max64(u.BestStreak, bestStreak)
			u.PosCounts = max64(u.PosCounts, posCounts)
		})
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}
	return count, store.Close()
}

// migrateAchievements reads the achievements table into the global
// achievements document. Unlocks already present keep their timestamps.
func migrateAchievements(db *sql.DB, path string) (int, error) {
	rows, err := db.Query(`SELECT user_id, achievement_id, unlocked_at FROM achievements`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	store := achievements.OpenStore(path)
	count := 0

	for rows.Next() {
		var userID, unlockedAt int64
		var achievementID string
		if err := rows.Scan(&userID, &achievementID, &unlockedAt); err != nil {
			return count, err
		}
		achievementID = strings.TrimSpace(achievementID)
		if achievementID == "" {
			continue
		}

		store.Update(func(st *achievements.State) {
			u := st.GetOrCreate(userID)
			if !u.IsUnlocked(achievementID) {
				u.Unlocked[achievementID] = unlockedAt
			}
		})
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}
	return count, store.Close()
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
