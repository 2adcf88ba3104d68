package achievements

// Condition is a pure predicate over an evaluation snapshot.
type Condition func(*Context) bool

// StatKey selects a field from the user-stats snapshot.
type StatKey int

const (
	StatCorrect StatKey = iota
	StatIncorrect
	StatCurrentStreak
	StatBestStreak
	StatPosCounts
)

// CountingKey selects a field from the guild counting snapshot.
type CountingKey int

const (
	CountingLastNumber CountingKey = iota
	CountingStreakCurrent
	CountingStreakBest
)

func statValue(ctx *Context, key StatKey) int64 {
	switch key {
	case StatCorrect:
		return ctx.Stats.Correct
	case StatIncorrect:
		return ctx.Stats.Incorrect
	case StatCurrentStreak:
		return ctx.Stats.CurrentStreak
	case StatBestStreak:
		return ctx.Stats.BestStreak
	case StatPosCounts:
		return ctx.Stats.PosCounts
	}
	return 0
}

func countingValue(ctx *Context, key CountingKey) int64 {
	switch key {
	case CountingLastNumber:
		return ctx.Counting.LastNumber
	case CountingStreakCurrent:
		return ctx.Counting.StreakCurrent
	case CountingStreakBest:
		return ctx.Counting.StreakBest
	}
	return 0
}

// UserStatAtLeast matches when the user's stat reaches value.
func UserStatAtLeast(key StatKey, value int64) Condition {
	return func(ctx *Context) bool { return statValue(ctx, key) >= value }
}

// UserStatEquals matches when the user's stat equals value exactly.
func UserStatEquals(key StatKey, value int64) Condition {
	return func(ctx *Context) bool { return statValue(ctx, key) == value }
}

// CountingAtLeast matches when the guild counting value reaches value.
func CountingAtLeast(key CountingKey, value int64) Condition {
	return func(ctx *Context) bool { return countingValue(ctx, key) >= value }
}

// CountingEquals matches when the guild counting value equals value exactly.
func CountingEquals(key CountingKey, value int64) Condition {
	return func(ctx *Context) bool { return countingValue(ctx, key) == value }
}

// Never matches nothing. Used by manual-only achievements that are unlocked
// through UnlockByID.
func Never() Condition {
	return func(*Context) bool { return false }
}

// AllOf matches when every condition matches.
func AllOf(conds ...Condition) Condition {
	return func(ctx *Context) bool {
		for _, c := range conds {
			if !c(ctx) {
				return false
			}
		}
		return true
	}
}

// AnyOf matches when at least one condition matches.
func AnyOf(conds ...Condition) Condition {
	return func(ctx *Context) bool {
		for _, c := range conds {
			if c(ctx) {
				return true
			}
		}
		return false
	}
}
