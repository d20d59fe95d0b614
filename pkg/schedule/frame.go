package schedule

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one refresh of a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameQueue defers work to the next frame boundary. At most one callback is
// queued: a new request replaces the pending one, so only the most recent
// request ever runs.
type FrameQueue struct {
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	gen     uint64
	pending Timer
}

// NewFrameQueue returns a queue that fires on multiples of interval as
// measured by clock. A nil clock means RealClock; a non-positive interval
// means DefaultFrameInterval.
func NewFrameQueue(clock Clock, interval time.Duration) *FrameQueue {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameQueue{clock: clock, interval: interval}
}

// Request queues fn for the next frame, cancelling any callback that is still
// waiting. It reports whether a pending callback was replaced.
func (q *FrameQueue) Request(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	replaced := q.stopLocked()

	q.gen++
	gen := q.gen
	q.pending = q.clock.AfterFunc(q.untilNextFrame(), func() {
		q.mu.Lock()
		if q.gen != gen || q.pending == nil {
			q.mu.Unlock()
			return
		}
		q.pending = nil
		q.mu.Unlock()
		fn()
	})
	return replaced
}

// Cancel drops the pending callback. It reports whether one was pending.
func (q *FrameQueue) Cancel() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopLocked()
}

// Pending reports whether a callback is queued.
func (q *FrameQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}

func (q *FrameQueue) stopLocked() bool {
	if q.pending == nil {
		return false
	}
	q.pending.Stop()
	q.pending = nil
	q.gen++
	return true
}

// untilNextFrame returns the delay to the next multiple of the interval.
func (q *FrameQueue) untilNextFrame() time.Duration {
	now := q.clock.Now()
	next := now.Truncate(q.interval).Add(q.interval)
	return next.Sub(now)
}
