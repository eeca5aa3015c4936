package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestClockAdvances verifies the virtual clock starts near zero and only
// moves forward.
func TestClockAdvances(t *testing.T) {
	clock := NewClock()

	first := clock.Now()
	assert.GreaterOrEqual(t, first, 0.0)
	assert.Less(t, first, 1.0)

	time.Sleep(10 * time.Millisecond)

	second := clock.Now()
	assert.Greater(t, second, first)
}
