package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/render/sink"
)

// RenderSnapshot generates output artifacts in the requested formats.
func RenderSnapshot(ctx context.Context, s *layout.Snapshot, opts Options) (map[string][]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("render: nil snapshot")
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}

		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(s, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(s, sink.WithPNGSVGOptions(svgOpts...))
		case FormatPDF:
			data, err = sink.RenderPDF(s, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(s, sink.WithJSONColumns())
		case FormatDOT:
			data = []byte(sink.ToDOT(s, sink.DOTOptions{Detailed: opts.Labels}))
		case FormatDOTSVG:
			data, err = sink.RenderDOTSVG(ctx, sink.ToDOT(s, sink.DOTOptions{Detailed: opts.Labels}))
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Labels {
		svgOpts = append(svgOpts, sink.WithLabels())
	}
	if opts.Guides {
		svgOpts = append(svgOpts, sink.WithGuides())
	}
	if opts.Title != "" {
		svgOpts = append(svgOpts, sink.WithTitle(opts.Title))
	}
	return svgOpts
}
