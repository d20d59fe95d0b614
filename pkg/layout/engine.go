package layout

// Surface is the rendering surface a pass reads from and writes to. It is
// implemented by the host environment (a DOM element, a terminal view, the
// headless board in package surface).
type Surface interface {
	// Width returns the content width of the container. Zero or less means
	// the container is not attached or not rendered yet.
	Width() float64

	// Items returns the current children in layout order.
	Items() []Item

	// SetHeight sets the container's total height.
	SetHeight(h float64)

	// SetColumnCount tells the presentation layer how many columns exist.
	SetColumnCount(n int)

	// SetDistributed marks that items have been placed at least once.
	SetDistributed(bool)
}

// Item is a single child of the container.
type Item interface {
	// ID returns a stable identifier, unique within the container.
	ID() string

	// Height returns the current rendered height.
	Height() float64

	// Place applies a position. animate asks the host to transition from
	// the previous position.
	Place(p Placement, animate bool)
}

// Measured is an item's identity and height as captured by the read phase.
type Measured struct {
	ID     string
	Height float64
}

// Measurement is everything the assign phase needs from the surface.
type Measurement struct {
	Width float64
	Items []Measured

	items []Item
}

// Entry is the assignment computed for one item.
type Entry struct {
	ID         string    `json:"id" bson:"id"`
	ItemHeight float64   `json:"height" bson:"height"`
	Placement  Placement `json:"placement" bson:"placement"`
	Locked     bool      `json:"locked,omitempty" bson:"locked,omitempty"`
	Changed    bool      `json:"-" bson:"-"`
	First      bool      `json:"-" bson:"-"`
}

// Plan is the output of the assign phase: the full target layout of a pass.
type Plan struct {
	Width       float64
	Config      Config
	ColumnCount int
	ColumnWidth float64
	Heights     *Heights
	Entries     []Entry
	Height      float64

	// Reordered is set when the column count differs from the previous
	// pass; column lock is suspended for such passes.
	Reordered bool

	items []Item
}

// ChangedCount returns the number of entries the write phase will apply.
func (p *Plan) ChangedCount() int {
	n := 0
	for _, e := range p.Entries {
		if e.Changed {
			n++
		}
	}
	return n
}

// Result summarizes a committed pass.
type Result struct {
	Width       float64   `json:"width"`
	ColumnCount int       `json:"column_count"`
	ColumnWidth float64   `json:"column_width"`
	Height      float64   `json:"height"`
	Heights     []float64 `json:"heights"`
	Items       int       `json:"items"`
	Changed     []string  `json:"changed,omitempty"`
	Placed      []string  `json:"placed,omitempty"`
	Forgotten   int       `json:"forgotten,omitempty"`
	Reordered   bool      `json:"reordered,omitempty"`
	Distributed bool      `json:"distributed,omitempty"`
}

// Engine runs layout passes for one container. It keeps the previous pass's
// column heights and the placement cache between passes.
//
// A pass is three strictly ordered phases: [Engine.Read] measures, the pure
// [Engine.Assign] computes the target layout, and [Engine.Commit] applies the
// changes. Keeping them apart means the host is never asked to measure after
// it has been mutated within the same pass.
//
// Engine is not safe for concurrent use; callers serialize passes.
type Engine struct {
	prev        *Heights
	cache       *PlacementCache
	entries     []Entry
	width       float64
	config      Config
	height      float64
	columns     int
	committed   bool
	distributed bool

	// synced is false while the history came from Restore rather than from
	// writes to the current surface. Records still steer column lock, but
	// the next commit writes everything.
	synced bool
}

// NewEngine returns an engine with no layout history.
func NewEngine() *Engine {
	return &Engine{cache: NewPlacementCache()}
}

// Read captures the container width and every item's height, once each and in
// item order. It reports false when the container has no renderable width;
// such a pass is skipped rather than treated as an error.
func (e *Engine) Read(s Surface) (Measurement, bool) {
	width := s.Width()
	if !(width > 0) {
		return Measurement{}, false
	}
	items := s.Items()
	m := Measurement{
		Width: width,
		Items: make([]Measured, len(items)),
		items: items,
	}
	for i, it := range items {
		h := it.Height()
		if !(h > 0) {
			h = 0
		}
		m.Items[i] = Measured{ID: it.ID(), Height: h}
	}
	return m, true
}

// Assign computes the target layout for m. It does not touch the surface or
// mutate the engine.
func (e *Engine) Assign(m Measurement, cfg Config) *Plan {
	cfg, _ = cfg.Normalize()

	colCount := cfg.ColumnCount(m.Width)
	colWidth := ColumnWidth(m.Width, cfg.Gap, colCount)
	heights := NewHeights(colCount)

	reordered := e.prev != nil && e.prev.Len() != colCount
	lock := cfg.ColumnLock && e.prev != nil && !reordered

	plan := &Plan{
		Width:       m.Width,
		Config:      cfg,
		ColumnCount: colCount,
		ColumnWidth: colWidth,
		Heights:     heights,
		Entries:     make([]Entry, len(m.Items)),
		Reordered:   reordered,
		items:       m.items,
	}

	for i, it := range m.Items {
		prev, seen := e.cache.Get(it.ID)

		col := -1
		if lock && seen && prev.Column < colCount {
			col = prev.Column
		}
		locked := col >= 0
		if !locked {
			col = heights.Shortest()
		}

		pos := ItemPosition(colWidth, cfg.Gap, col, heights)
		heights.Place(col, pos.Top, it.Height)

		p := Placement{Column: col, Top: pos.Top, Left: pos.Left, Width: colWidth}
		plan.Entries[i] = Entry{
			ID:         it.ID,
			ItemHeight: it.Height,
			Placement:  p,
			Locked:     locked,
			Changed:    !seen || !e.synced || !samePlacement(cfg.Positioning, prev, p),
			First:      !seen,
		}
	}

	plan.Height = heights.Tallest()
	return plan
}

// samePlacement compares what the given positioning mode actually applies.
func samePlacement(mode Positioning, a, b Placement) bool {
	if mode == PositionColumns {
		return a.Column == b.Column
	}
	return a.Equal(b)
}

// Resizes reports whether committing p changes the container's height. The
// container uses this to recognize the resize notification its own write
// will cause.
func (e *Engine) Resizes(p *Plan) bool {
	return !e.committed || !e.synced || !nearlyEqual(e.height, p.Height)
}

// Commit applies p to s: it writes changed items only, updates the container
// height and column count, raises the one-shot distributed flag on the first
// placement, and replaces the engine's history with the pass's results.
func (e *Engine) Commit(p *Plan, s Surface) Result {
	res := Result{
		Width:       p.Width,
		ColumnCount: p.ColumnCount,
		ColumnWidth: p.ColumnWidth,
		Height:      p.Height,
		Heights:     p.Heights.Values(),
		Items:       len(p.Entries),
		Reordered:   p.Reordered,
	}

	for i, entry := range p.Entries {
		if !entry.Changed {
			continue
		}
		if i < len(p.items) {
			p.items[i].Place(entry.Placement, p.Config.Transition && e.synced && !entry.First)
		}
		res.Changed = append(res.Changed, entry.ID)
		if entry.First {
			res.Placed = append(res.Placed, entry.ID)
		}
	}

	if !e.synced || p.ColumnCount != e.columns {
		s.SetColumnCount(p.ColumnCount)
	}
	if e.Resizes(p) {
		s.SetHeight(p.Height)
	}
	if (!e.distributed || !e.synced) && len(p.Entries) > 0 {
		s.SetDistributed(true)
		e.distributed = true
		res.Distributed = true
	}

	keep := make(map[string]struct{}, len(p.Entries))
	for _, entry := range p.Entries {
		keep[entry.ID] = struct{}{}
		if entry.Changed {
			e.cache.Set(entry.ID, entry.Placement)
		}
	}
	res.Forgotten = e.cache.Retain(keep)

	e.prev = p.Heights
	e.entries = p.Entries
	e.width = p.Width
	e.config = p.Config
	e.height = p.Height
	e.columns = p.ColumnCount
	e.committed = true
	e.synced = true
	return res
}

// Layout runs a complete pass. It reports false when the pass was skipped
// because the container is not attached.
func (e *Engine) Layout(s Surface, cfg Config) (Result, bool) {
	m, ok := e.Read(s)
	if !ok {
		return Result{}, false
	}
	return e.Commit(e.Assign(m, cfg), s), true
}

// Placement returns the last committed placement of the item with id.
func (e *Engine) Placement(id string) (Placement, bool) {
	return e.cache.Get(id)
}

// Forget drops the cached placement of a detached item.
func (e *Engine) Forget(id string) { e.cache.Forget(id) }

// ColumnCount returns the column count of the last committed pass, or 0.
func (e *Engine) ColumnCount() int { return e.columns }

// Width returns the container width of the last committed pass.
func (e *Engine) Width() float64 { return e.width }

// PreviousHeights returns the column heights of the last committed pass.
func (e *Engine) PreviousHeights() []float64 { return e.prev.Values() }

// Distributed reports whether any item has been placed yet.
func (e *Engine) Distributed() bool { return e.distributed }

// Reset forgets all history, as if no pass had ever run.
func (e *Engine) Reset() {
	*e = Engine{cache: NewPlacementCache()}
}
