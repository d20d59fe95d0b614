// Package container connects a layout engine to a live host.
//
// A [Container] owns one [layout.Engine] and reacts to the host's lifecycle:
//
//   - [Container.Attach] subscribes to an [Observable] host and requests the
//     first pass.
//   - Width changes and item size changes are debounced (300ms by default)
//     and then run on the next frame.
//   - Newly added items that were never placed skip the debounce window.
//   - The resize notification caused by the container's own height write is
//     recognized and ignored, so a pass never triggers itself.
//   - [Container.Detach] unsubscribes and cancels pending work.
//
// Each container debounces under its own key, so many containers can share
// a clock without delaying one another.
//
//	board := surface.NewBoard(1200)
//	c := container.New(board, layout.DefaultConfig(),
//	    container.WithLogger(logger),
//	    container.WithOnLayout(func(res layout.Result) { ... }),
//	)
//	c.Attach(ctx)
//	defer c.Detach()
package container
