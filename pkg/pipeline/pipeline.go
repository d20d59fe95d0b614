// Package pipeline provides the headless layout pipeline for masonry.
//
// This package implements the complete items → layout → render pipeline
// used by the CLI and the HTTP API. Both entry points go through a [Runner]
// so they share validation, caching and output formats.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: Run one engine pass over the items on a headless board,
//     optionally continuing from a previous snapshot so column lock holds
//  2. Render: Generate output in various formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	opts := pipeline.Options{
//	    Width:   1200,
//	    Items:   []pipeline.Item{{ID: "a", Height: 180}, {ID: "b", Height: 240}},
//	    Formats: []string{"svg", "json"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	snap, err := runner.Layout(ctx, opts)
//	artifacts, err := runner.Render(ctx, snap, opts)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/config"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultWidth is the container width used when none is given.
const DefaultWidth = 1200.0

// Format constants for output formats.
const (
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatPDF    = "pdf"
	FormatJSON   = "json"
	FormatDOT    = "dot"
	FormatDOTSVG = "dot-svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:    true,
	FormatPNG:    true,
	FormatPDF:    true,
	FormatJSON:   true,
	FormatDOT:    true,
	FormatDOTSVG: true,
}

// FormatList is ValidFormats in display order.
var FormatList = []string{FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatDOT, FormatDOTSVG}

// ContentTypes maps output formats to MIME types.
var ContentTypes = map[string]string{
	FormatSVG:    "image/svg+xml",
	FormatPNG:    "image/png",
	FormatPDF:    "application/pdf",
	FormatJSON:   "application/json",
	FormatDOT:    "text/vnd.graphviz",
	FormatDOTSVG: "image/svg+xml",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Item is one measured child of the container.
type Item struct {
	ID     string  `json:"id" toml:"id" yaml:"id"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
}

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Width      float64           `json:"width,omitempty"`
	Items      []Item            `json:"items"`
	Config     *layout.Config    `json:"config,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Previous   string            `json:"previous,omitempty"` // stored snapshot to continue from
	Refresh    bool              `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Guides  bool     `json:"guides,omitempty"`
	Title   string   `json:"title,omitempty"`

	// Runtime options (not serialized)
	Logger           *log.Logger      `json:"-"`
	PreviousSnapshot *layout.Snapshot `json:"-"`

	resolved  layout.Config
	warnings  []*errors.Error
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the committed layout.
	Snapshot *layout.Snapshot

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Warnings lists configuration values that were replaced by defaults.
	Warnings []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ItemCount   int
	ColumnCount int
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the snapshot came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatList, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateItems checks item identifiers and heights. IDs must be unique
// because they key the placement cache.
func ValidateItems(items []Item) error {
	if len(items) > errors.MaxItems {
		return errors.New(errors.ErrCodeInvalidInput, "too many items: %d (max %d)", len(items), errors.MaxItems)
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if err := errors.ValidateItemID(it.ID); err != nil {
			return err
		}
		if err := errors.ValidateHeight(it.ID, it.Height); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return errors.New(errors.ErrCodeInvalidItem, "duplicate item id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLayout validates the items and resolves the layout configuration.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := errors.ValidateWidth(o.Width); err != nil {
		return err
	}
	if err := ValidateItems(o.Items); err != nil {
		return err
	}
	if o.Previous != "" {
		if err := errors.ValidateLayoutID(o.Previous); err != nil {
			return err
		}
	}
	o.resolveConfig()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// LayoutConfig returns the resolved layout configuration: Config (or the
// defaults) with Attributes applied on top and every field normalized.
func (o *Options) LayoutConfig() layout.Config {
	o.resolveConfig()
	return o.resolved
}

// Warnings returns the configuration values that were replaced by defaults
// while resolving the layout configuration.
func (o *Options) Warnings() []*errors.Error {
	o.resolveConfig()
	return o.warnings
}

func (o *Options) resolveConfig() {
	if o.validated {
		return
	}
	base := layout.DefaultConfig()
	if o.Config != nil {
		base = *o.Config
	}
	cfg, warnings := config.ApplyAttributes(base, o.Attributes)
	o.resolved, o.warnings = cfg, warnings
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(previousHash string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:    o.Width,
		Config:   o.LayoutConfig(),
		Previous: previousHash,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Labels: o.Labels,
		Guides: o.Guides,
		Title:  o.Title,
	}
}

func warningStrings(warnings []*errors.Error) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = errors.UserMessage(w)
	}
	return out
}
