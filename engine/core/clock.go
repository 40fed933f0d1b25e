package core

import "time"

// Clock measures elapsed wall time since Start.
type Clock struct {
	start   time.Time
	running bool
	elapsed time.Duration
	now     func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Update refreshes the elapsed time. Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now().Sub(c.start)
	}
}

// Start resets the elapsed time.
func (c *Clock) Start() {
	c.start = c.now()
	c.running = true
	c.elapsed = 0
}

// Stop does not reset the elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the time in seconds recorded by the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}
