package analysis

import (
	"sync"
	"time"
)

// Default settle times for text edits.
const (
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultFilterDebounce = 150 * time.Millisecond
)

// Debouncer coalesces bursts of calls: each Schedule cancels the pending
// call and starts a new wait, so only the last call of a burst runs.
type Debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	timer *time.Timer
	gen   uint64
}

// NewDebouncer returns a Debouncer that waits d after the last Schedule.
func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{wait: d}
}

// Wait returns the settle time.
func (d *Debouncer) Wait() time.Duration { return d.wait }

// Schedule arranges for fn to run once the wait elapses without another
// Schedule or Cancel. fn runs on its own goroutine.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
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

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
