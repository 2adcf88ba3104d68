package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestClock tests freeze, advance, and set.
func TestClock(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	c := NewClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now(), "time stays frozen")

	c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), c.Now())

	jump := start.Add(24 * time.Hour)
	c.Set(jump)
	assert.Equal(t, jump, c.Now())
}
