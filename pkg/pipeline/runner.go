package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/observability"
	"github.com/matzehuels/masonry/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, store and logger - it
// doesn't keep pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	Logger *log.Logger

	// TTL overrides the per-kind cache TTLs when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache, keyer and store.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If st is nil, previous snapshots are kept in memory.
func NewRunner(c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if st == nil {
		st = store.NewMemory()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  st,
		Logger: logger,
	}
}

// Execute runs the complete layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Warnings: warningStrings(opts.Warnings()),
	}
	for _, w := range result.Warnings {
		r.Logger.Warn("config value replaced", "detail", w)
	}

	// Stage 1: Layout
	layoutStart := time.Now()
	snap, layoutHit, err := r.LayoutWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Snapshot = snap
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.ItemCount = len(snap.Entries)
	result.Stats.ColumnCount = snap.ColumnCount
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"items", len(snap.Entries),
		"columns", snap.ColumnCount,
		"height", snap.Height,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes a layout with caching and returns cache hit info.
//
// The cache key covers the items, width and configuration, plus the
// snapshot the layout continues from: with column lock the same items can
// land differently depending on history.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, opts Options) (snap *layout.Snapshot, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(opts.Items))
	start := time.Now()
	defer func() {
		hooks.OnLayoutComplete(ctx, len(opts.Items), time.Since(start), err)
	}()

	previous, err := r.previous(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	// Compute cache key
	inputHash, err := cache.HashJSON(opts.Items)
	if err != nil {
		return nil, false, fmt.Errorf("hash items: %w", err)
	}
	var previousHash string
	if previous != nil {
		if previousHash, err = snapshotHash(previous); err != nil {
			return nil, false, err
		}
	}
	cacheKey := r.Keyer.LayoutKey(inputHash, opts.LayoutKeyOpts(previousHash))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			cached, err := layout.UnmarshalSnapshot(data)
			if err == nil {
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
			opts.Logger.Debug("discarding unreadable cached layout", "err", err)
		}
	}

	snap, res, err := ComputeLayout(opts, previous)
	if err != nil {
		return nil, false, err
	}
	opts.Logger.Debug("layout pass committed",
		"columns", res.ColumnCount,
		"changed", len(res.Changed),
		"reordered", res.Reordered)

	// Cache the result
	if data, err := layout.MarshalSnapshot(snap); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLLayout)); err != nil {
			opts.Logger.Warn("cache layout", "err", err)
		}
	}

	return snap, false, nil // Cache miss
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, opts Options) (*layout.Snapshot, error) {
	snap, _, err := r.LayoutWithCacheInfo(ctx, opts)
	return snap, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, snap *layout.Snapshot, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	// Compute cache key from layout data. The JSON artifact carries the
	// snapshot's ID, so identity is part of the hash here.
	layoutHash, err := cache.HashJSON(snap)
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	// Try to get all formats from cache
	allCached := true
	artifacts = make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) > 0 {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render all formats
	rendered, err := RenderSnapshot(ctx, snap, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLArtifact)); err != nil {
			opts.Logger.Warn("cache artifact", "format", format, "err", err)
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, snap *layout.Snapshot, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, snap, opts)
	return artifacts, err
}

// Close releases resources held by the runner.
func (r *Runner) Close(ctx context.Context) error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(ctx); err == nil {
			err = serr
		}
	}
	return err
}

// previous resolves the snapshot a layout continues from.
func (r *Runner) previous(ctx context.Context, opts Options) (*layout.Snapshot, error) {
	if opts.PreviousSnapshot != nil {
		return opts.PreviousSnapshot, nil
	}
	if opts.Previous == "" {
		return nil, nil
	}
	snap, err := r.Store.Load(ctx, opts.Previous)
	if err != nil {
		return nil, fmt.Errorf("load previous layout %s: %w", opts.Previous, err)
	}
	return snap, nil
}

// snapshotHash hashes the layout content of s, ignoring its storage
// identity, so equal layouts share cache entries.
func snapshotHash(s *layout.Snapshot) (string, error) {
	c := s.Clone()
	c.ID = ""
	c.CreatedAt = time.Time{}
	h, err := cache.HashJSON(c)
	if err != nil {
		return "", fmt.Errorf("hash layout: %w", err)
	}
	return h, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
