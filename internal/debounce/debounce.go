// Package debounce coalesces bursts of triggers into a single delayed call.
package debounce

import (
	"sync"
	"time"
)

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls. The TUI supplies a clock that runs the
// callback on the program's update loop.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules with time.AfterFunc.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer delays fn until delay has passed without another Trigger.
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	delay time.Duration
	fn    func()
	timer Timer
	gen   uint64
}

// New creates a Debouncer. A nil clock uses RealClock.
func New(clock Clock, delay time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, delay: delay, fn: fn}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
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
		// callback behind; the generation check drops it.
		if gen != d.gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Cancel drops any pending call. Safe to call when nothing is pending.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
