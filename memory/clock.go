/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"fmt"
	"time"
)

const zeroDisplay = "00:00"

// FormatElapsed renders d as zero-padded minutes and seconds. Minutes are
// not wrapped into hours.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)

	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Clock measures play time. It starts lazily, publishes a new display value
// on every tick that changes the text, and freezes once stopped.
type Clock struct {
	sched    Scheduler
	display  func(text string, final bool)
	interval time.Duration

	started bool
	running bool
	origin  time.Time
	stopped time.Time
	text    string
	cancel  Cancel
}

func NewClock(sched Scheduler, interval time.Duration, display func(text string, final bool)) *Clock {
	if display == nil {
		display = func(string, bool) {}
	}

	return &Clock{
		sched:    sched,
		display:  display,
		interval: interval,
		text:     zeroDisplay,
	}
}

// Start records the origin and begins ticking. It does nothing when the
// clock has already been started, even if it was stopped since.
func (c *Clock) Start() {
	if c.started {
		return
	}

	c.started = true
	c.running = true
	c.origin = c.sched.Now()
	c.cancel = c.sched.Every(c.interval, c.tick)
}

// Stop halts ticking and publishes the final value.
func (c *Clock) Stop() {
	if !c.running {
		return
	}

	c.running = false
	c.stopped = c.sched.Now()
	c.halt()

	c.text = FormatElapsed(c.stopped.Sub(c.origin))
	c.display(c.text, true)
}

// Reset returns the clock to its unstarted state with a zero display.
func (c *Clock) Reset() {
	c.halt()

	c.started = false
	c.running = false
	c.origin = time.Time{}
	c.stopped = time.Time{}
	c.text = zeroDisplay

	c.display(c.text, false)
}

func (c *Clock) Started() bool { return c.started }

func (c *Clock) Running() bool { return c.running }

// Elapsed is the measured time so far, or the frozen total once stopped.
func (c *Clock) Elapsed() time.Duration {
	switch {
	case !c.started:
		return 0
	case c.running:
		return c.sched.Now().Sub(c.origin)
	default:
		return c.stopped.Sub(c.origin)
	}
}

// Text is the last published display value.
func (c *Clock) Text() string { return c.text }

func (c *Clock) tick() {
	if !c.running {
		return
	}

	text := FormatElapsed(c.sched.Now().Sub(c.origin))
	if text == c.text {
		return
	}

	c.text = text
	c.display(text, false)
}

func (c *Clock) halt() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
