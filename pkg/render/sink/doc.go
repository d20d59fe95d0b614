// Package sink provides output format renderers for masonry layouts.
//
// # Overview
//
// Sinks take a committed [layout.Snapshot] and serialize it:
//
//   - SVG: the board as it would be painted, one rectangle per item
//   - JSON: the snapshot itself, suitable for re-rendering or for seeding
//     a later pass so column lock carries over
//   - DOT: the column chains as a Graphviz digraph, one cluster per column
//   - PNG/PDF: the SVG converted with rsvg-convert
//
// # SVG Output
//
// [RenderSVG] draws items at their committed offsets. Column guides and item
// labels are optional:
//
//	svg := sink.RenderSVG(snap,
//	    sink.WithGuides(),
//	    sink.WithLabels(),
//	    sink.WithTitle("gallery"),
//	)
//
// # JSON Output
//
// [RenderJSON] emits the snapshot in the same shape [layout.UnmarshalSnapshot]
// reads, so a rendered layout can be fed back into the pipeline:
//
//	data, err := sink.RenderJSON(snap)
//
// # Graphviz Output
//
// [ToDOT] lays the columns out left to right with each item linked to the one
// stacked below it. [RenderDOTSVG] runs the DOT source through the embedded
// Graphviz and returns SVG.
//
//	dot := sink.ToDOT(snap, sink.DOTOptions{Detailed: true})
//	svg, err := sink.RenderDOTSVG(ctx, dot)
//
// [layout.Snapshot]: github.com/matzehuels/masonry/pkg/layout.Snapshot
// [layout.UnmarshalSnapshot]: github.com/matzehuels/masonry/pkg/layout.UnmarshalSnapshot
package sink
