package goals

import (
	"fmt"
	"math"
	"strings"
)

const barWidth = 22

// RenderData is the idempotent view of a guild's goal progress. Computing
// it has no side effects; callers may request it as often as they like.
type RenderData struct {
	Active      bool
	Target      int64
	Value       int64
	Percent     int
	Bar         string
	SetByUserID int64
	DeadlineAt  *int64 // unix milliseconds
}

// renderData assembles the display view from goal target and live count.
// lastNumber is clamped at zero; -1 (uninitialized) renders as no progress.
func renderData(active bool, target, lastNumber, setBy int64, deadlineAt *int64) RenderData {
	// An active goal with a nonsense target renders as inactive.
	if active && target <= 0 {
		active = false
	}

	d := RenderData{
		Active:      active,
		Target:      target,
		SetByUserID: setBy,
		DeadlineAt:  deadlineAt,
	}
	if !active {
		d.Bar = strings.Repeat("░", barWidth)
		return d
	}

	d.Value = max64(0, lastNumber)

	pct := float64(d.Value) / float64(d.Target)
	if pct > 1 {
		pct = 1
	}
	d.Percent = int(math.Floor(pct * 100))

	filled := int(math.Round(pct * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	d.Bar = strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return d
}

// Body formats the display message the tracker posts and edits.
func (d RenderData) Body() string {
	var sb strings.Builder
	sb.WriteString("**Counting Goal**\n")

	if !d.Active {
		sb.WriteString("No active goal\n")
		sb.WriteString("`" + d.Bar + "` 0%\n")
		sb.WriteString("0 / 0")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Reach %d\n", d.Target)

	deadline := "none"
	if d.DeadlineAt != nil {
		deadline = fmt.Sprintf("<t:%d:R>", *d.DeadlineAt/1000)
	}
	fmt.Fprintf(&sb, "Set by: <@%d> | Deadline: %s\n", d.SetByUserID, deadline)

	fmt.Fprintf(&sb, "`%s` %d%%\n", d.Bar, d.Percent)
	fmt.Fprintf(&sb, "%d / %d", d.Value, d.Target)
	return sb.String()
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
