package goals

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// TestRenderData_Math tests percent and bar-fill arithmetic.
func TestRenderData_Math(t *testing.T) {
	tests := []struct {
		name       string
		target     int64
		lastNumber int64
		percent    int
		filled     int
	}{
		{"zero progress", 2000, 0, 0, 0},
		{"uninitialized clamps to zero", 2000, -1, 0, 0},
		{"quarter", 2000, 500, 25, 6},
		{"one third floors", 3, 1, 33, 7},
		{"almost there", 100, 99, 99, 22},
		{"exact", 100, 100, 100, 22},
		{"overshoot clamps", 100, 150, 100, 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := renderData(true, tt.target, tt.lastNumber, 1, nil)
			assert.Equal(t, tt.percent, d.Percent)
			assert.Equal(t, tt.filled, strings.Count(d.Bar, "█"))
			assert.Equal(t, barWidth-tt.filled, strings.Count(d.Bar, "░"))
		})
	}
}

// TestRenderData_Inactive tests the inactive view, including the bad-target
// guard.
func TestRenderData_Inactive(t *testing.T) {
	d := renderData(false, 0, 50, 0, nil)
	assert.False(t, d.Active)
	assert.Equal(t, int64(0), d.Value)
	assert.Equal(t, strings.Repeat("░", barWidth), d.Bar)

	// An active flag with a nonsense target renders as inactive.
	d = renderData(true, 0, 50, 0, nil)
	assert.False(t, d.Active)
	d = renderData(true, -5, 50, 0, nil)
	assert.False(t, d.Active)
}

// TestBody_Golden pins the exact display message formats.
func TestBody_Golden(t *testing.T) {
	g := newGoldie(t)
	deadline := int64(1_700_000_000_000)

	t.Run("halfway", func(t *testing.T) {
		body := renderData(true, 2000, 500, 42, nil).Body()
		g.Assert(t, "goal_halfway", []byte(body))
	})

	t.Run("inactive", func(t *testing.T) {
		body := renderData(false, 0, 0, 0, nil).Body()
		g.Assert(t, "goal_inactive", []byte(body))
	})

	t.Run("complete", func(t *testing.T) {
		body := renderData(true, 100, 150, 7, nil).Body()
		g.Assert(t, "goal_complete", []byte(body))
	})

	t.Run("deadline", func(t *testing.T) {
		body := renderData(true, 1000, -1, 9, &deadline).Body()
		g.Assert(t, "goal_deadline", []byte(body))
	})
}
