// Package pkg provides the core libraries for masonry layouts.
//
// # Overview
//
// Masonry arranges variable-height items into a fixed number of equal-width
// columns. Each item goes to the currently shortest column (within a small
// slack that favors the leftmost), so the columns grow at the same rate the
// way bricks are laid in a wall.
//
// The pkg directory is organized into three areas:
//
//  1. Layout - the pure engine ([layout]), the observable host it writes to
//     ([surface]) and the live container that keeps them in sync
//     ([container], [schedule])
//  2. Outputs - SVG, JSON, DOT, PNG and PDF renderers ([render], [render/sink])
//  3. Infrastructure - the layout pipeline used by the CLI and the HTTP API
//     ([pipeline], [server]), caching ([cache]), snapshot storage ([store]),
//     configuration ([config]), errors ([errors]) and hooks ([observability])
//
// # Architecture
//
// A live container runs passes like this:
//
//	host resize / children change
//	         ↓
//	    [schedule] debounce, then wait for the next frame
//	         ↓
//	    [layout] Read (measure) → Assign (pure) → Commit (write)
//	         ↓
//	    host placements, column count, container height
//
// Batch use skips the scheduling and goes straight through [pipeline]:
//
//	items file → layout → snapshot → SVG/PNG/PDF/JSON/DOT
//
// # Quick Start
//
// Lay out a board once:
//
//	board := surface.NewBoard(1200)
//	board.Add("a", 120)
//	board.Add("b", 80)
//
//	e := layout.NewEngine()
//	res, ok := e.Layout(board, layout.DefaultConfig())
//	svg := sink.RenderSVG(e.Snapshot())
//
// Keep a board laid out while it changes:
//
//	c := container.New(board, layout.DefaultConfig(),
//	    container.WithOnLayout(func(res layout.Result) {
//	        fmt.Println(res.ColumnCount, res.Height)
//	    }))
//	c.Attach(ctx)
//	defer c.Detach()
//
//	board.Resize(800) // laid out again after the debounce window
//
// # Testing
//
// The schedtest package provides a fake clock so debounce and frame timing
// can be driven deterministically:
//
//	clock := schedtest.NewFakeClock()
//	c := container.New(board, cfg, container.WithClock(clock))
//	clock.Advance(cfg.Debounce + schedule.DefaultFrameInterval)
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/layout
// [surface]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/surface
// [container]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/container
// [schedule]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/schedule
// [render]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/observability
package pkg
