package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/pipeline"
)

// layoutFlags holds the command-line flags for the layout command.
type layoutFlags struct {
	output   string
	formats  string
	attrs    []string
	previous string
	noCache  bool
	table    bool
}

// layoutCommand creates the layout command for computing a layout from an
// items file.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [items.json|items.toml|items.yaml]",
		Short: "Compute a masonry layout from an items file",
		Long: `Compute a masonry layout from an items file.

The items file lists the children of the container with their measured
heights, optionally with the container width and layout attributes:

  {"width": 1000, "attributes": {"gap": 20}, "items": [{"id": "a", "height": 50}]}

The result is written to <input>.layout.json, which 'render' turns into
SVG, PNG, PDF or Graphviz output. Pass --previous with an earlier layout.json
to continue from it, so column lock keeps items in their columns.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "also render these formats next to the layout (comma-separated: "+strings.Join(pipeline.FormatList, ", ")+")")
	cmd.Flags().StringArrayVarP(&flags.attrs, "attr", "a", nil, "layout attribute as key=value (repeatable), e.g. --attr columns=3 --attr columnlock")
	cmd.Flags().StringVar(&flags.previous, "previous", "", "layout.json to continue from")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.table, "table", false, "print the columns as a table")

	cmd.Flags().Float64Var(&opts.Width, "width", 0, "container width (default: from the items file, else 1200)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when the layout is cached")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "label items in rendered outputs")
	cmd.Flags().BoolVar(&opts.Guides, "guides", false, "draw column guides in rendered outputs")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title for rendered outputs")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("attr", completeAttributes)

	return cmd
}

// runLayout loads the items, computes the layout, and writes outputs.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, flags layoutFlags) error {
	in, err := pipeline.ReadInputFile(input)
	if err != nil {
		return fmt.Errorf("load items %s: %w", input, err)
	}

	cfg := c.layoutConfig()
	opts.Config = &cfg
	opts.Attributes = parseAttributes(flags.attrs)
	in.Apply(&opts)
	opts.Logger = c.Logger

	if flags.previous != "" {
		prev, err := layout.ReadSnapshotFile(flags.previous)
		if err != nil {
			return fmt.Errorf("load previous layout: %w", err)
		}
		opts.PreviousSnapshot = prev
	}

	// The layout itself is always written as JSON.
	opts.Formats = []string{pipeline.FormatJSON}
	if flags.formats != "" {
		extra := parseFormats(flags.formats)
		if err := pipeline.ValidateFormats(extra); err != nil {
			return err
		}
		opts.Formats = appendUnique(opts.Formats, extra...)
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(ctx)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d items...", len(opts.Items)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}

	for _, w := range result.Warnings {
		printWarning("%s", w)
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := layout.WriteSnapshotFile(result.Snapshot, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)

	base := basePath(outputPath)
	for _, format := range opts.Formats {
		if format == pipeline.FormatJSON {
			continue
		}
		path := base + "." + extension(format)
		if err := writeArtifact(path, result.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}

	printStats(result.Snapshot, result.CacheInfo.LayoutHit)
	if flags.table {
		fmt.Println(columnTable(result.Snapshot))
	}
	printNewline()
	printNextStep("Render", "masonry render "+outputPath)

	return nil
}

// basePath strips the .layout.json or .json suffix from a layout path.
func basePath(path string) string {
	for _, suffix := range []string{".layout.json", ".json"} {
		if strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix)
		}
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// extension maps a format to its file extension.
func extension(format string) string {
	if format == pipeline.FormatDOTSVG {
		return "dot.svg"
	}
	return format
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
