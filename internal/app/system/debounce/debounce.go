// Package debounce provides the cancellable-timer primitive behind
// delayed recomputation: each new trigger restarts the delay, and the
// armed function runs only once input has been quiet for the full
// interval.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays a function until Trigger has not been called for a
// fixed interval. A Debouncer is safe for concurrent use; the armed
// function runs on a timer goroutine.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// New returns a Debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger arms fn to run after the delay, cancelling any previously
// armed function. Only the most recent fn ever runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any armed function without running it. It reports whether
// one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
