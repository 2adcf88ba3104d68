package achievements

// Well-known manual-only achievement ids, unlocked through UnlockByID.
const (
	// IDCauseFail rewards the user whose number was repeated by someone
	// else immediately afterwards, misleading them into a wrong count.
	IDCauseFail = "cause_fail"

	// IDGoalWinner rewards the user who posted the exact goal target.
	IDGoalWinner = "goal_winner"
)

// Definition is one immutable catalog entry.
type Definition struct {
	ID          string
	Title       string
	Description string

	// Triggers lists the event kinds that evaluate this definition.
	// Empty means manual-only.
	Triggers []Trigger

	Condition Condition

	Hidden      bool
	LogOnUnlock bool
}

// TriggeredBy reports whether the definition evaluates on kind.
func (d Definition) TriggeredBy(kind Trigger) bool {
	for _, t := range d.Triggers {
		if t == kind {
			return true
		}
	}
	return false
}

// Catalog returns the static achievement catalog in display order.
// The returned slice is shared; callers must not mutate it.
func Catalog() []Definition {
	return catalog
}

var catalog = []Definition{
	// Count milestones (exact number sent).
	def("count_1", "Count to 1", "Counted 1 for the first time.",
		onValid, CountingEquals(CountingLastNumber, 1)),
	def("count_10", "Count to 10", "Successfully counted to 10.",
		onValid, CountingEquals(CountingLastNumber, 10)),
	def("count_100", "Count to 100", "Successfully counted to 100.",
		onValid, CountingEquals(CountingLastNumber, 100)),
	def("count_1000", "Count to 1000", "Successfully counted to 1000.",
		onValid, CountingEquals(CountingLastNumber, 1000)),
	def("count_10000", "Count to 10,000", "Successfully counted to 10,000.",
		onValid, CountingEquals(CountingLastNumber, 10_000)),

	// Personal streak milestones.
	def("streak_10", "10 Streak", "Reached a streak of 10 without failing.",
		onValid, UserStatAtLeast(StatBestStreak, 10)),
	def("streak_50", "50 Streak", "Reached a streak of 50 without failing.",
		onValid, UserStatAtLeast(StatBestStreak, 50)),
	def("streak_100", "100 Streak", "Reached a streak of 100 without failing.",
		onValid, UserStatAtLeast(StatBestStreak, 100)),
	def("streak_500", "500 Streak", "Reached a streak of 500 without failing.",
		onValid, UserStatAtLeast(StatBestStreak, 500)),
	def("streak_1000", "1000 Streak", "Reached a streak of 1000 without failing.",
		onValid, UserStatAtLeast(StatBestStreak, 1000)),

	// Lifetime accepted-count milestones.
	def("increasing_count_1", "Increasing Counter 1", "Sent 1 increasing numbers in the count.",
		onValid, UserStatAtLeast(StatPosCounts, 1)),
	def("increasing_count_10", "Increasing Counter 10", "Sent 10 increasing numbers in the count.",
		onValid, UserStatAtLeast(StatPosCounts, 10)),
	def("increasing_count_100", "Increasing Counter 100", "Sent 100 increasing numbers in the count.",
		onValid, UserStatAtLeast(StatPosCounts, 100)),
	def("increasing_count_1000", "Increasing Counter 1000", "Sent 1000 increasing numbers in the count.",
		onValid, UserStatAtLeast(StatPosCounts, 1000)),

	// Manual-only.
	def(IDCauseFail, "Saboteur",
		"Another user repeated a number you sent, causing them to incorrectly count.",
		nil, Never()),
	def(IDGoalWinner, "Goal Winner",
		"Was the final counter when a goal was reached.",
		nil, Never()),
}

var onValid = []Trigger{TriggerValidCount}

func def(id, title, desc string, triggers []Trigger, cond Condition) Definition {
	return Definition{
		ID:          id,
		Title:       title,
		Description: desc,
		Triggers:    triggers,
		Condition:   cond,
		LogOnUnlock: true,
	}
}
