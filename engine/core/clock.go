package core

import "time"

type Clock struct {
	startTime time.Time
	elapsed   time.Duration
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = time.Since(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.Update()
	c.startTime = time.Time{}
}

// Elapsed returns the elapsed time in seconds.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}

// ElapsedMs returns the elapsed time in milliseconds.
func (c *Clock) ElapsedMs() float64 {
	return float64(c.elapsed.Microseconds()) / 1000.0
}

// Measure runs fn and returns how long it took in milliseconds.
func Measure(fn func()) float64 {
	c := NewClock()
	c.Start()
	fn()
	c.Stop()
	return c.ElapsedMs()
}
