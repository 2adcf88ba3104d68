package achievements

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gudu0/CountingBot/internal/guild"
	"github.com/Gudu0/CountingBot/internal/stats"
	"github.com/Gudu0/CountingBot/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *guild.Registry, *stats.Store, *testutil.Clock) {
	t.Helper()
	dir := t.TempDir()

	clock := testutil.NewClock(time.UnixMilli(1_700_000_000_000))
	reg := guild.NewRegistry(dir)
	t.Cleanup(func() { reg.Close() })

	statsStore := stats.OpenStore(filepath.Join(dir, "stats.json"))
	store := OpenStore(filepath.Join(dir, "achievements.json"))
	t.Cleanup(func() {
		statsStore.Close()
		store.Close()
	})

	svc := NewService(store, reg, statsStore, WithNow(clock.Now))
	return svc, reg, statsStore, clock
}

// TestService_OnTriggerUnlocksMilestone tests condition evaluation against
// live snapshots.
func TestService_OnTriggerUnlocksMilestone(t *testing.T) {
	svc, reg, statsStore, _ := newTestService(t)

	reg.Get(1).State.Update(func(st *guild.CountingState) { st.LastNumber = 10 })
	statsStore.Update(func(d *stats.Data) { d.GetOrCreate(7).PosCounts = 1 })

	svc.OnTrigger(TriggerValidCount, 1, 7)

	unlocked := svc.UserAchievements(7)
	assert.Contains(t, unlocked, "count_10")
	assert.Contains(t, unlocked, "increasing_count_1")
	assert.NotContains(t, unlocked, "count_100")
	assert.NotContains(t, unlocked, "streak_10")
}

// TestService_OnTriggerRespectsTriggerKind tests that invalid-count events
// never evaluate valid-count definitions.
func TestService_OnTriggerRespectsTriggerKind(t *testing.T) {
	svc, reg, _, _ := newTestService(t)

	reg.Get(1).State.Update(func(st *guild.CountingState) { st.LastNumber = 10 })

	svc.OnTrigger(TriggerInvalidCount, 1, 7)
	assert.Empty(t, svc.UserAchievements(7))
}

// TestService_UnlockKeepsFirstTimestamp tests idempotency: re-unlocking
// never moves the recorded time.
func TestService_UnlockKeepsFirstTimestamp(t *testing.T) {
	svc, reg, _, clock := newTestService(t)

	reg.Get(1).State.Update(func(st *guild.CountingState) { st.LastNumber = 1 })

	svc.OnTrigger(TriggerValidCount, 1, 7)
	first := svc.UserAchievements(7)["count_1"]
	require.NotZero(t, first)

	clock.Advance(time.Hour)
	svc.OnTrigger(TriggerValidCount, 1, 7)

	assert.Equal(t, first, svc.UserAchievements(7)["count_1"])
}

// TestService_UnlockByID tests the manual unlock path.
func TestService_UnlockByID(t *testing.T) {
	svc, _, _, clock := newTestService(t)

	svc.UnlockByID(1, 7, IDCauseFail)
	first := svc.UserAchievements(7)[IDCauseFail]
	require.NotZero(t, first)

	clock.Advance(time.Minute)
	svc.UnlockByID(1, 7, IDCauseFail)
	assert.Equal(t, first, svc.UserAchievements(7)[IDCauseFail], "repeat unlock keeps the first timestamp")
}

// TestService_UnlockByIDUnknown tests that an unknown id is a logged no-op.
func TestService_UnlockByIDUnknown(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	svc.UnlockByID(1, 7, "does_not_exist")
	assert.Empty(t, svc.UserAchievements(7))
}

// TestService_UserAchievementsCopies tests that the returned map is
// detached from the document.
func TestService_UserAchievementsCopies(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	svc.UnlockByID(1, 7, IDGoalWinner)
	m := svc.UserAchievements(7)
	m[IDGoalWinner] = -1
	m["extra"] = 1

	fresh := svc.UserAchievements(7)
	assert.NotEqual(t, int64(-1), fresh[IDGoalWinner])
	assert.NotContains(t, fresh, "extra")
}

// TestService_PersistsAcrossReopen tests the document round trip.
func TestService_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "achievements.json")

	reg := guild.NewRegistry(dir)
	t.Cleanup(func() { reg.Close() })
	statsStore := stats.OpenStore(filepath.Join(dir, "stats.json"))
	t.Cleanup(func() { statsStore.Close() })

	store := OpenStore(path)
	svc := NewService(store, reg, statsStore)
	svc.UnlockByID(1, 7, IDCauseFail)
	require.NoError(t, store.Close())

	store2 := OpenStore(path)
	t.Cleanup(func() { store2.Close() })
	svc2 := NewService(store2, reg, statsStore)
	assert.Contains(t, svc2.UserAchievements(7), IDCauseFail)
}
