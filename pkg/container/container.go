package container

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/observability"
	"github.com/matzehuels/masonry/pkg/schedule"
)

// Host is the element a container lays out.
type Host = layout.Surface

// Item is a child of the host.
type Item = layout.Item

// Observable is implemented by hosts that push notifications about their own
// size and their children. Hosts that do not implement it are driven by
// calling [Container.OnResize] and [Container.OnChildrenChanged] directly.
type Observable interface {
	ObserveResize(fn func(width float64)) (cancel func())
	ObserveChildren(fn func()) (cancel func())
}

// Option configures a Container.
type Option func(*Container)

// WithClock sets the clock used for debouncing and frame scheduling.
func WithClock(clock schedule.Clock) Option {
	return func(c *Container) { c.clock = clock }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *log.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFrameInterval sets the frame length passes are aligned to.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Container) { c.frameInterval = d }
}

// WithOnLayout registers a callback invoked once per committed pass.
func WithOnLayout(fn func(layout.Result)) Option {
	return func(c *Container) { c.onLayout = fn }
}

// WithOnItemPlaced registers a callback invoked once per item, the first
// time it is placed.
func WithOnItemPlaced(fn func(id string)) Option {
	return func(c *Container) { c.onItemPlaced = fn }
}

// Container drives layout passes for one host in response to resizes,
// child-list changes and configuration changes.
//
// Events are coalesced by a per-container debouncer; the debounced callback
// requests a frame and the frame runs the pass. Only the newest frame request
// commits. Passes are serialized, and host writes happen without the
// container's state lock held, so hosts may notify synchronously.
type Container struct {
	id     string
	host   Host
	engine *layout.Engine
	logger *log.Logger

	clock         schedule.Clock
	frameInterval time.Duration
	debouncer     *schedule.Debouncer
	frames        *schedule.FrameQueue

	onLayout     func(layout.Result)
	onItemPlaced func(string)

	passMu sync.Mutex

	mu               sync.Mutex
	ctx              context.Context
	cfg              layout.Config
	attached         bool
	gen              uint64
	unsubscribe      []func()
	ignoreNextResize bool
	lastWidth        float64
	placed           map[string]struct{}
	passes           int
}

// New returns a detached container for host. cfg is normalized; replaced
// values are logged as warnings.
func New(host Host, cfg layout.Config, opts ...Option) *Container {
	c := &Container{
		id:            "layout_" + uuid.NewString(),
		host:          host,
		engine:        layout.NewEngine(),
		logger:        log.New(io.Discard),
		frameInterval: schedule.DefaultFrameInterval,
		ctx:           context.Background(),
		placed:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = schedule.RealClock{}
	}
	c.debouncer = schedule.NewDebouncer(c.clock)
	c.frames = schedule.NewFrameQueue(c.clock, c.frameInterval)
	c.cfg = c.normalize(cfg)
	return c
}

// ID returns the container's instance identifier. It is also the key the
// container debounces under.
func (c *Container) ID() string { return c.id }

// Config returns the current configuration.
func (c *Container) Config() layout.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Attached reports whether the container is attached.
func (c *Container) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

// Passes returns the number of committed passes.
func (c *Container) Passes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passes
}

// Attach starts reacting to the host. Observable hosts are subscribed to,
// and a first pass is requested for the next frame. ctx is handed to
// observability hooks; cancelling it detaches the container.
func (c *Container) Attach(ctx context.Context) {
	c.mu.Lock()
	if c.attached {
		c.mu.Unlock()
		return
	}
	c.attached = true
	c.ctx = ctx
	c.mu.Unlock()

	var subs []func()
	if obs, ok := c.host.(Observable); ok {
		subs = append(subs, obs.ObserveResize(c.OnResize), obs.ObserveChildren(c.OnChildrenChanged))
	}
	if done := ctx.Done(); done != nil {
		stop := make(chan struct{})
		go func() {
			select {
			case <-done:
				c.Detach()
			case <-stop:
			}
		}()
		subs = append(subs, func() { close(stop) })
	}

	c.mu.Lock()
	c.unsubscribe = subs
	c.mu.Unlock()

	c.logger.Debug("container attached", "id", c.id)
	c.Layout()
}

// Detach stops reacting to the host and cancels any pending work. Placement
// history is kept, so re-attaching continues where the container left off.
func (c *Container) Detach() {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	c.attached = false
	c.gen++
	c.ignoreNextResize = false
	subs := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	for _, cancel := range subs {
		cancel()
	}
	c.debouncer.Cancel(c.id)
	c.frames.Cancel()
	c.logger.Debug("container detached", "id", c.id)
}

// SetConfig replaces the configuration and schedules a debounced pass.
func (c *Container) SetConfig(cfg layout.Config) {
	cfg = c.normalize(cfg)
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	c.ScheduleLayout()
}

// OnResize handles a size notification for the host. The first
// notification after a pass changed the host's height is the pass's own
// doing and is ignored. Otherwise a pass is scheduled when the width changed.
func (c *Container) OnResize(width float64) {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	if c.ignoreNextResize {
		c.ignoreNextResize = false
		if width == c.lastWidth {
			ctx := c.ctx
			c.mu.Unlock()
			c.logger.Debug("ignoring own resize", "id", c.id, "width", width)
			observability.Scheduler().OnResizeIgnored(ctx, c.id)
			return
		}
	}
	changed := width != c.lastWidth
	c.mu.Unlock()

	if changed {
		c.ScheduleLayout()
	}
}

// OnChildrenChanged handles additions, removals and size changes of items.
// When a new item has never been placed the pass is requested right away so
// the item is not held back by the debounce window.
func (c *Container) OnChildrenChanged() {
	if !c.Attached() {
		return
	}
	items := c.host.Items()

	c.mu.Lock()
	unplaced := false
	for _, it := range items {
		if _, ok := c.placed[it.ID()]; !ok {
			unplaced = true
			break
		}
	}
	c.mu.Unlock()

	if unplaced {
		c.Layout()
		return
	}
	c.ScheduleLayout()
}

// ScheduleLayout requests a pass after the configured debounce window.
// Repeated calls within the window restart it.
func (c *Container) ScheduleLayout() {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	delay := c.cfg.Debounce
	ctx := c.ctx
	c.mu.Unlock()

	restarted := c.debouncer.Schedule(c.id, delay, c.requestFrame)
	observability.Scheduler().OnSchedule(ctx, c.id, delay, restarted)
}

// Layout requests a pass on the next frame, replacing any pass already
// waiting for it. A pending debounced pass is dropped, since the requested
// pass covers it.
func (c *Container) Layout() {
	c.debouncer.Cancel(c.id)
	c.requestFrame()
}

func (c *Container) requestFrame() {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	ctx := c.ctx
	c.mu.Unlock()

	if c.frames.Request(func() { c.pass(gen) }) {
		observability.Scheduler().OnFrameReplaced(ctx, c.id)
	}
}

// LayoutNow runs a pass immediately, bypassing the debouncer and the frame
// queue. Pending debounced and frame passes are cancelled. The boolean is
// false when the pass was skipped.
func (c *Container) LayoutNow() (layout.Result, bool) {
	c.debouncer.Cancel(c.id)
	c.frames.Cancel()
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	return c.pass(gen)
}

// Placement returns the last committed placement of an item.
func (c *Container) Placement(id string) (layout.Placement, bool) {
	c.passMu.Lock()
	defer c.passMu.Unlock()
	return c.engine.Placement(id)
}

// Snapshot captures the container's committed layout.
func (c *Container) Snapshot() *layout.Snapshot {
	c.passMu.Lock()
	defer c.passMu.Unlock()
	return c.engine.Snapshot()
}

// Restore seeds the container's history from a snapshot, so column lock
// continues across processes.
func (c *Container) Restore(s *layout.Snapshot) {
	c.passMu.Lock()
	defer c.passMu.Unlock()
	c.engine.Restore(s)

	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.placed)
	if s == nil {
		c.lastWidth = 0
		return
	}
	c.lastWidth = s.Width
	for _, e := range s.Entries {
		c.placed[e.ID] = struct{}{}
	}
}

// pass runs one pass and then notifies listeners. Listeners run after the
// pass lock is released and may query the container.
func (c *Container) pass(gen uint64) (layout.Result, bool) {
	ctx, res, elapsed, ok := c.run(gen)
	if !ok {
		return res, false
	}

	hooks := observability.Layout()
	for _, id := range res.Placed {
		hooks.OnItemPlaced(ctx, c.id, id)
		if c.onItemPlaced != nil {
			c.onItemPlaced(id)
		}
	}
	hooks.OnPassComplete(ctx, c.id, res, elapsed)
	if c.onLayout != nil {
		c.onLayout(res)
	}
	return res, true
}

func (c *Container) run(gen uint64) (context.Context, layout.Result, time.Duration, bool) {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	c.mu.Lock()
	if !c.attached || gen != c.gen {
		c.mu.Unlock()
		return nil, layout.Result{}, 0, false
	}
	cfg := c.cfg
	ctx := c.ctx
	c.mu.Unlock()

	hooks := observability.Layout()
	start := c.clock.Now()

	m, ok := c.engine.Read(c.host)
	if !ok {
		c.logger.Debug("skipping pass, host not attached", "id", c.id)
		hooks.OnPassSkipped(ctx, c.id, string(errors.ErrCodeNotAttached))
		return ctx, layout.Result{}, 0, false
	}
	hooks.OnPassStart(ctx, c.id, len(m.Items))
	plan := c.engine.Assign(m, cfg)

	c.mu.Lock()
	if !c.attached || gen != c.gen {
		c.mu.Unlock()
		return ctx, layout.Result{}, 0, false
	}
	c.ignoreNextResize = c.engine.Resizes(plan)
	c.lastWidth = plan.Width
	c.mu.Unlock()

	res := c.engine.Commit(plan, c.host)

	c.mu.Lock()
	clear(c.placed)
	for _, e := range plan.Entries {
		c.placed[e.ID] = struct{}{}
	}
	c.passes++
	c.mu.Unlock()

	c.logger.Debug("pass committed",
		"id", c.id,
		"items", res.Items,
		"columns", res.ColumnCount,
		"changed", len(res.Changed),
		"height", res.Height,
	)
	if res.Reordered {
		c.logger.Debug("column count changed, locks released", "id", c.id, "columns", res.ColumnCount)
	}
	return ctx, res, c.clock.Now().Sub(start), true
}

func (c *Container) normalize(cfg layout.Config) layout.Config {
	cfg, fixes := cfg.Normalize()
	for _, w := range errors.Warnings(fixes) {
		c.logger.Warn("invalid layout option", "id", c.id, "code", w.Code, "detail", w.Message)
	}
	return cfg
}
