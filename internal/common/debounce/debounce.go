// Package debounce provides a cancellable timer that collapses a burst of
// triggers into one call after a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDelay is the quiet period used for free-text search input
const DefaultDelay = 500 * time.Millisecond

// Debouncer schedules a function after Delay, rescheduling on every Trigger.
// Only the function passed to the most recent Trigger runs.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu    sync.Mutex
	timer *clock.Timer
	gen   uint64
}

// New creates a Debouncer. A nil clock uses the wall clock.
func New(c clock.Clock, delay time.Duration) *Debouncer {
	if c == nil {
		c = clock.New()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{clock: c, delay: delay}
}

// Delay returns the configured quiet period
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger cancels any pending call and schedules fn after the quiet period.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A Stop that lost the race with the timer firing leaves a stale
		// callback; the generation check drops it.
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops the pending call, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether a call is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
