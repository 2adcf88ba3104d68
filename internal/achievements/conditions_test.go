package achievements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func condCtx() *Context {
	return &Context{
		Counting: CountingSnapshot{LastNumber: 100, StreakCurrent: 4, StreakBest: 12},
		Stats:    StatsSnapshot{Correct: 30, Incorrect: 2, CurrentStreak: 4, BestStreak: 15, PosCounts: 30},
	}
}

// TestConditions tests the predicate building blocks.
func TestConditions(t *testing.T) {
	ctx := condCtx()

	assert.True(t, UserStatAtLeast(StatCorrect, 30)(ctx))
	assert.False(t, UserStatAtLeast(StatCorrect, 31)(ctx))
	assert.True(t, UserStatEquals(StatIncorrect, 2)(ctx))
	assert.False(t, UserStatEquals(StatIncorrect, 3)(ctx))
	assert.True(t, UserStatAtLeast(StatBestStreak, 15)(ctx))
	assert.True(t, UserStatAtLeast(StatPosCounts, 1)(ctx))

	assert.True(t, CountingEquals(CountingLastNumber, 100)(ctx))
	assert.False(t, CountingEquals(CountingLastNumber, 99)(ctx))
	assert.True(t, CountingAtLeast(CountingStreakBest, 12)(ctx))
	assert.False(t, CountingAtLeast(CountingStreakCurrent, 5)(ctx))

	assert.False(t, Never()(ctx))
}

// TestConditions_Combinators tests AllOf/AnyOf short-circuit semantics.
func TestConditions_Combinators(t *testing.T) {
	ctx := condCtx()
	yes := UserStatAtLeast(StatCorrect, 1)
	no := Never()

	assert.True(t, AllOf()(ctx), "empty AllOf matches")
	assert.True(t, AllOf(yes, yes)(ctx))
	assert.False(t, AllOf(yes, no)(ctx))

	assert.False(t, AnyOf()(ctx), "empty AnyOf matches nothing")
	assert.True(t, AnyOf(no, yes)(ctx))
	assert.False(t, AnyOf(no, no)(ctx))
}

// TestDefinition_TriggeredBy tests trigger membership.
func TestDefinition_TriggeredBy(t *testing.T) {
	d := Definition{Triggers: []Trigger{TriggerValidCount}}
	assert.True(t, d.TriggeredBy(TriggerValidCount))
	assert.False(t, d.TriggeredBy(TriggerInvalidCount))

	manual := Definition{}
	assert.False(t, manual.TriggeredBy(TriggerValidCount))
}

// TestCatalog tests structural properties of the static catalog.
func TestCatalog(t *testing.T) {
	defs := Catalog()
	assert.NotEmpty(t, defs)

	seen := make(map[string]bool)
	for _, d := range defs {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.NotNil(t, d.Condition, "%s needs a condition", d.ID)
		assert.NotEmpty(t, d.Title, "%s needs a title", d.ID)
	}

	// The manual-only ids referenced from the engine must exist.
	assert.True(t, seen[IDCauseFail])
	assert.True(t, seen[IDGoalWinner])
}
