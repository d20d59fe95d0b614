package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/pipeline"
)

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	output  string // output file (single format) or base path (multiple)
	formats string // comma-separated output formats
	noCache bool
}

// renderCommand creates the render command for turning a stored layout into
// images and diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a layout to SVG, PNG, PDF, JSON or Graphviz",
		Long: `Render a layout produced by 'layout' (or 'render -f json').

Formats:
  svg      boxes at their computed positions
  png/pdf  the SVG converted with rsvg-convert (librsvg)
  json     the layout with per-column summaries
  dot      Graphviz source, one cluster per column
  dot-svg  the Graphviz view rendered to SVG`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(flags.formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): "+strings.Join(pipeline.FormatList, ", ")+" (comma-separated, default svg)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "label items with their id and height")
	cmd.Flags().BoolVar(&opts.Guides, "guides", false, "draw column guides")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title drawn above the board")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// runRender loads the layout and writes one file per requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, flags renderFlags) error {
	logger := loggerFromContext(ctx)

	snap, err := layout.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	logger.Debug("loaded layout", "items", len(snap.Entries), "columns", snap.ColumnCount)

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(ctx)

	opts.Logger = c.Logger
	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, snap, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %d format(s)", len(opts.Formats)))
	prog.done("rendered layout", "formats", strings.Join(opts.Formats, ","), "cached", hit)

	paths := outputPaths(input, flags.output, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeArtifact(paths[format], artifacts[format]); err != nil {
			return err
		}
	}

	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	return nil
}

// outputPaths derives the file written for each format. A single format
// with an explicit output uses it verbatim; otherwise files share a base
// path derived from the output (minus a known extension) or the input.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}

	base := basePath(input)
	if output != "" {
		base = output
		ext := strings.TrimPrefix(filepath.Ext(output), ".")
		if pipeline.ValidFormats[ext] {
			base = strings.TrimSuffix(output, "."+ext)
		}
	}
	for _, f := range formats {
		paths[f] = base + "." + extension(f)
	}
	return paths
}
