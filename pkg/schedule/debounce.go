package schedule

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of requests into a single trailing call per key.
//
// Each call to Schedule (re)starts the timer for its key; the callback runs
// once the key has been quiet for the full delay. A Debouncer is owned by one
// component, so keys only need to be unique within it, and two owners never
// cancel each other's timers.
type Debouncer struct {
	clock Clock

	mu     sync.Mutex
	seq    uint64
	timers map[string]debounced
}

type debounced struct {
	timer Timer
	gen   uint64
}

// NewDebouncer returns a Debouncer using clock. A nil clock means RealClock.
func NewDebouncer(clock Clock) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, timers: make(map[string]debounced)}
}

// Schedule arranges for fn to run after delay unless Schedule or Cancel is
// called again with the same key first. It reports whether a pending call was
// replaced.
func (d *Debouncer) Schedule(key string, delay time.Duration, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	restarted := false
	if p, ok := d.timers[key]; ok {
		p.timer.Stop()
		restarted = true
	}

	d.seq++
	gen := d.seq
	timer := d.clock.AfterFunc(max(0, delay), func() {
		d.mu.Lock()
		p, ok := d.timers[key]
		if !ok || p.gen != gen {
			// Superseded between firing and acquiring the lock.
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = debounced{timer: timer, gen: gen}
	return restarted
}

// Cancel drops the pending call for key. It reports whether one was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.timers[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.timers, key)
	return true
}

// Pending reports whether a call for key is waiting to run.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}

// Stop cancels every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, p := range d.timers {
		p.timer.Stop()
		delete(d.timers, key)
	}
}
