// Package layout implements masonry layout: packing variable-height items into
// a fixed number of columns by always filling the currently shortest column.
//
// # Overview
//
// The package is split into small pieces that a container composes:
//
//   - Geometry helpers ([ColumnCount], [ColumnWidth], [ItemPosition],
//     [ShortestColumn], [TallestColumnHeight]) are pure functions.
//   - [Heights] tracks each column's running height during one pass.
//   - [PlacementCache] remembers the last applied [Placement] per item.
//   - [Engine] runs passes and keeps history between them.
//
// # Passes
//
// A pass has three phases that must not interleave:
//
//	m, ok := engine.Read(surface)   // measure width and item heights
//	if !ok {
//	    return // not attached yet
//	}
//	plan := engine.Assign(m, cfg)    // pure: columns, offsets, change set
//	res := engine.Commit(plan, surface) // write changed items only
//
// [Engine.Layout] runs all three in order.
//
// # Column lock
//
// With [Config.ColumnLock] set, an item that was placed before keeps its column
// as long as the column count does not change, so height-only changes move
// items vertically but never sideways. A column count change reassigns every
// item.
//
// # Shortest column
//
// Ties are broken towards the lowest index: a later column must be shorter than
// the running minimum by more than [Slack] pixels to be picked.
package layout
