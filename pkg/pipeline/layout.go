package pipeline

import (
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/surface"
)

// =============================================================================
// Layout Generation
// =============================================================================

// ComputeLayout runs a single pass over the items on a headless board and
// returns the committed snapshot with the pass summary.
//
// When previous is non-nil the engine starts from it: with column lock
// enabled, items stay in their columns as long as the column count holds,
// and known items are not reported as newly placed.
func ComputeLayout(opts Options, previous *layout.Snapshot) (*layout.Snapshot, layout.Result, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, layout.Result{}, err
	}

	board := surface.NewBoard(opts.Width)
	for _, it := range opts.Items {
		if _, err := board.Add(it.ID, it.Height); err != nil {
			return nil, layout.Result{}, errors.Wrap(errors.ErrCodeInvalidItem, err, "add item")
		}
	}

	engine := layout.NewEngine()
	if previous != nil {
		engine.Restore(previous)
	}

	res, ok := engine.Layout(board, opts.LayoutConfig())
	if !ok {
		return nil, layout.Result{}, errors.New(errors.ErrCodeNotAttached, "container width %g is not laid out", opts.Width)
	}

	return engine.Snapshot(), res, nil
}
