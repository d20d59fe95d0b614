package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/masonry/pkg/layout"
)

// DOTOptions configures the Graphviz view of a layout.
type DOTOptions struct {
	// Detailed adds the offset and height to node labels.
	// When false, only the item ID is shown.
	Detailed bool
}

// ToDOT converts a snapshot to Graphviz DOT format. Every column becomes a
// cluster and each item points at the item stacked directly below it, so the
// rendered graph reads like the board turned into chains.
//
// Locked items are drawn with dashed outlines.
func ToDOT(s *layout.Snapshot, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.3;\n")
	buf.WriteString("  nodesep=0.4;\n")

	for col := 0; col < s.ColumnCount; col++ {
		entries := s.Column(col)
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", col)
		fmt.Fprintf(&buf, "    label=%q;\n", columnLabel(s, col))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		fmt.Fprintf(&buf, "    color=%q;\n", columnColor(col))
		for _, e := range entries {
			fmt.Fprintf(&buf, "    %q [%s];\n", e.ID, strings.Join(fmtAttrs(e, opts.Detailed), ", "))
		}
		for i := 1; i < len(entries); i++ {
			fmt.Fprintf(&buf, "    %q -> %q;\n", entries[i-1].ID, entries[i].ID)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func columnLabel(s *layout.Snapshot, col int) string {
	if col < len(s.Heights) {
		return fmt.Sprintf("column %d (%s)", col, strconv.FormatFloat(s.Heights[col], 'f', -1, 64))
	}
	return fmt.Sprintf("column %d", col)
}

func fmtAttrs(e layout.Entry, detailed bool) []string {
	label := e.ID
	if detailed {
		label = fmt.Sprintf("%s\ntop: %s\nheight: %s", e.ID,
			strconv.FormatFloat(e.Placement.Top, 'f', -1, 64),
			strconv.FormatFloat(e.ItemHeight, 'f', -1, 64))
	}
	attrs := []string{fmt.Sprintf("label=%q", label), fmt.Sprintf("fillcolor=%q", columnColor(e.Placement.Column))}
	if e.Locked {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderDOTSVG renders DOT source to SVG using the embedded Graphviz.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales with its
// container instead of using Graphviz's point-based size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
