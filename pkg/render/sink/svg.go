package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/masonry/pkg/layout"
)

const boardCSS = `
    .board { fill: #fafafa; }
    .column { fill: #f0f0f0; }
    .item { stroke: #333; stroke-width: 1; rx: 4; }
    .item.locked { stroke-dasharray: 4 2; }
    .label { font-family: Helvetica, Arial, sans-serif; font-size: 12px; fill: #222; }
    .title { font-family: Helvetica, Arial, sans-serif; font-size: 14px; font-weight: bold; fill: #222; }`

var palette = []string{
	"#8ecae6", "#ffb703", "#90be6d", "#f28482", "#cdb4db", "#f6bd60", "#84a59d", "#a8dadc",
}

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels  bool
	guides  bool
	title   string
	padding float64
}

// WithLabels writes each item's ID inside its rectangle.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithGuides shades the column tracks behind the items.
func WithGuides() SVGOption { return func(r *svgRenderer) { r.guides = true } }

// WithTitle adds a caption above the board.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithPadding sets the margin around the board (default 16).
func WithPadding(p float64) SVGOption {
	return func(r *svgRenderer) {
		if p >= 0 {
			r.padding = p
		}
	}
}

// RenderSVG draws the snapshot as an SVG document. Items are painted in
// snapshot order at their committed offsets; the board is as tall as the
// tallest column.
func RenderSVG(s *layout.Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{padding: 16}
	for _, opt := range opts {
		opt(&r)
	}

	header := 0.0
	if r.title != "" {
		header = 24
	}
	boardHeight := max(s.Height, 1)
	totalWidth := s.Width + 2*r.padding
	totalHeight := boardHeight + 2*r.padding + header

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		totalWidth, totalHeight, totalWidth, totalHeight)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", boardCSS)

	if r.title != "" {
		fmt.Fprintf(&buf, `  <text class="title" x="%.1f" y="%.1f">%s</text>`+"\n",
			r.padding, r.padding+14, escapeXML(r.title))
	}

	fmt.Fprintf(&buf, `  <g transform="translate(%.1f %.1f)">`+"\n", r.padding, r.padding+header)
	fmt.Fprintf(&buf, `    <rect class="board" x="0" y="0" width="%.1f" height="%.1f"/>`+"\n", s.Width, boardHeight)
	if r.guides {
		renderGuides(&buf, s, boardHeight)
	}
	for _, e := range s.Entries {
		renderItem(&buf, e, r.labels)
	}
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderGuides(buf *bytes.Buffer, s *layout.Snapshot, height float64) {
	for i := 0; i < s.ColumnCount; i++ {
		left := (s.ColumnWidth + s.Config.Gap) * float64(i)
		fmt.Fprintf(buf, `    <rect class="column" x="%.1f" y="0" width="%.1f" height="%.1f"/>`+"\n",
			left, s.ColumnWidth, height)
	}
}

func renderItem(buf *bytes.Buffer, e layout.Entry, labels bool) {
	class := "item"
	if e.Locked {
		class += " locked"
	}
	p := e.Placement
	fmt.Fprintf(buf, `    <rect id="item-%s" class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		escapeXML(e.ID), class, p.Left, p.Top, p.Width, e.ItemHeight, columnColor(p.Column))
	if labels && e.ItemHeight >= 14 {
		fmt.Fprintf(buf, `    <text class="label" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			p.Left+p.Width/2, p.Top+e.ItemHeight/2, escapeXML(e.ID))
	}
}

func columnColor(col int) string {
	if col < 0 {
		col = -col
	}
	return palette[col%len(palette)]
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
