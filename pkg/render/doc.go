// Package render turns committed layouts into files.
//
// The [sink] subpackage produces the primary outputs of a [layout.Snapshot]:
// an SVG drawing of the board, the JSON snapshot, and a Graphviz view of the
// column chains. This package holds the format conversion shared by them.
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg := sink.RenderSVG(snap)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)
//
// [sink]: github.com/matzehuels/masonry/pkg/render/sink
// [layout.Snapshot]: github.com/matzehuels/masonry/pkg/layout.Snapshot
package render
