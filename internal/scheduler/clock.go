package scheduler

import "time"

// Clock is the process-wide virtual time source: monotonic elapsed seconds
// since the clock was started. All scheduling computations share one clock so
// finish-time comparisons across backends stay meaningful regardless of when
// each backend was last serviced.
type Clock struct {
	start time.Time
}

// NewClock starts a virtual clock anchored at the current instant.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns the elapsed time since the clock started, in seconds.
// time.Since uses the monotonic reading, so wall-clock adjustments cannot
// move this value backwards.
func (c *Clock) Now() float64 {
	return time.Since(c.start).Seconds()
}
