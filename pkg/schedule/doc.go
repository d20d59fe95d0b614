// Package schedule coalesces layout requests and serializes visual commits.
//
// Two primitives are provided, both built on a [Clock]:
//
//   - [Debouncer] turns a burst of requests for the same key into one trailing
//     call after a quiet period. It is not a throttle: every new request
//     restarts the wait.
//   - [FrameQueue] runs work at the next frame boundary and keeps at most one
//     callback queued. Requesting again replaces the pending callback instead
//     of stacking another one.
//
// A container typically chains them: events feed the debouncer, the debounced
// callback requests a frame, and the frame runs the layout pass.
//
//	d := schedule.NewDebouncer(nil)
//	frames := schedule.NewFrameQueue(nil, 0)
//	d.Schedule(key, 300*time.Millisecond, func() {
//	    frames.Request(pass)
//	})
//
// Tests use [schedtest.FakeClock] to drive time explicitly.
package schedule
