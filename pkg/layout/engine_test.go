package layout

import (
	"fmt"
	"testing"
)

type fakeItem struct {
	id     string
	height float64
	placed []Placement
}

func (i *fakeItem) ID() string                   { return i.id }
func (i *fakeItem) Height() float64              { return i.height }
func (i *fakeItem) Place(p Placement, _ bool)    { i.placed = append(i.placed, p) }
func (i *fakeItem) last() Placement              { return i.placed[len(i.placed)-1] }
func (i *fakeItem) writes() int                  { return len(i.placed) }

type fakeSurface struct {
	width       float64
	items       []*fakeItem
	height      float64
	heightSets  int
	columns     int
	distributed int
}

func (s *fakeSurface) Width() float64 { return s.width }
func (s *fakeSurface) Items() []Item {
	out := make([]Item, len(s.items))
	for i, it := range s.items {
		out[i] = it
	}
	return out
}
func (s *fakeSurface) SetHeight(h float64)  { s.height = h; s.heightSets++ }
func (s *fakeSurface) SetColumnCount(n int) { s.columns = n }
func (s *fakeSurface) SetDistributed(bool)  { s.distributed++ }

func newSurface(width float64, heights ...float64) *fakeSurface {
	s := &fakeSurface{width: width}
	for i, h := range heights {
		s.items = append(s.items, &fakeItem{id: fmt.Sprintf("item-%d", i+1), height: h})
	}
	return s
}

func zeroGap() Config {
	cfg := DefaultConfig()
	cfg.Gap = 0
	return cfg
}

func TestLayoutGreedyScenario(t *testing.T) {
	s := newSurface(1000, 50, 60, 40, 30, 70)
	cfg := zeroGap()
	cfg.Columns = 2

	res, ok := NewEngine().Layout(s, cfg)
	if !ok {
		t.Fatal("Layout() skipped an attached container")
	}

	wantCols := []int{0, 1, 0, 1, 0}
	for i, it := range s.items {
		if got := it.last().Column; got != wantCols[i] {
			t.Errorf("%s column = %d, want %d", it.id, got, wantCols[i])
		}
	}
	if res.Heights[0] != 160 || res.Heights[1] != 90 {
		t.Errorf("heights = %v, want [160 90]", res.Heights)
	}
	if res.Height != 160 || s.height != 160 {
		t.Errorf("container height = %v (surface %v), want 160", res.Height, s.height)
	}
	if s.columns != 2 {
		t.Errorf("column count hint = %d, want 2", s.columns)
	}
}

func TestLayoutPositions(t *testing.T) {
	s := newSurface(1000, 100, 200, 50)
	cfg := DefaultConfig()
	cfg.Columns = 2
	cfg.Gap = 20

	if _, ok := NewEngine().Layout(s, cfg); !ok {
		t.Fatal("Layout() skipped")
	}

	colWidth := ColumnWidth(1000, 20, 2)
	want := []Placement{
		{Column: 0, Top: 0, Left: 0, Width: colWidth},
		{Column: 1, Top: 0, Left: colWidth + 20, Width: colWidth},
		{Column: 0, Top: 120, Left: 0, Width: colWidth},
	}
	for i, it := range s.items {
		if !it.last().Equal(want[i]) {
			t.Errorf("%s placed at %+v, want %+v", it.id, it.last(), want[i])
		}
	}
	if s.height != 200 {
		t.Errorf("container height = %v, want 200", s.height)
	}
}

func TestEveryItemAssignedOnce(t *testing.T) {
	heights := []float64{120, 80, 300, 45, 45, 45, 260, 90, 10, 500, 75, 33}
	for cols := 1; cols <= 6; cols++ {
		t.Run(fmt.Sprintf("%d columns", cols), func(t *testing.T) {
			s := newSurface(1200, heights...)
			cfg := DefaultConfig()
			cfg.Columns = cols

			e := NewEngine()
			m, _ := e.Read(s)
			plan := e.Assign(m, cfg)

			perColumn := make([]int, cols)
			for _, entry := range plan.Entries {
				if entry.Placement.Column < 0 || entry.Placement.Column >= cols {
					t.Fatalf("%s in column %d of %d", entry.ID, entry.Placement.Column, cols)
				}
				perColumn[entry.Placement.Column]++
			}
			total := 0
			for i, n := range perColumn {
				if n != plan.Heights.Count(i) {
					t.Errorf("column %d: %d entries, tracker counts %d", i, n, plan.Heights.Count(i))
				}
				total += n
			}
			if total != len(heights) {
				t.Errorf("assigned %d items, want %d", total, len(heights))
			}
		})
	}
}

func TestAssignmentWithinSlack(t *testing.T) {
	s := newSurface(1200, 120, 80, 300, 45, 45, 45, 260, 90, 10, 500)
	cfg := DefaultConfig()
	cfg.Columns = 3

	e := NewEngine()
	m, _ := e.Read(s)
	running := make([]float64, 3)
	plan := e.Assign(m, cfg)
	for _, entry := range plan.Entries {
		col := entry.Placement.Column
		for i, h := range running {
			if running[col]-h > Slack {
				t.Fatalf("%s went to column %d (%v) while column %d was %v", entry.ID, col, running[col], i, h)
			}
		}
		running[col] = entry.Placement.Top + entry.ItemHeight
	}
}

func TestSecondPassIsIdempotent(t *testing.T) {
	for _, lock := range []bool{false, true} {
		t.Run(fmt.Sprintf("lock=%v", lock), func(t *testing.T) {
			s := newSurface(900, 120, 80, 300, 45, 260)
			cfg := DefaultConfig()
			cfg.ColumnLock = lock

			e := NewEngine()
			first, _ := e.Layout(s, cfg)
			if len(first.Changed) != 5 || len(first.Placed) != 5 {
				t.Fatalf("first pass changed %d, placed %d, want 5 and 5", len(first.Changed), len(first.Placed))
			}
			before := e.Snapshot()
			heightSets := s.heightSets

			second, _ := e.Layout(s, cfg)
			if len(second.Changed) != 0 {
				t.Errorf("second pass rewrote %v", second.Changed)
			}
			if s.heightSets != heightSets {
				t.Error("second pass rewrote the container height")
			}
			after := e.Snapshot()
			for i := range before.Entries {
				if !before.Entries[i].Placement.Equal(after.Entries[i].Placement) {
					t.Errorf("%s moved from %+v to %+v", before.Entries[i].ID, before.Entries[i].Placement, after.Entries[i].Placement)
				}
			}
			for _, it := range s.items {
				if it.writes() != 1 {
					t.Errorf("%s written %d times, want 1", it.id, it.writes())
				}
			}
		})
	}
}

func TestColumnLockKeepsColumns(t *testing.T) {
	s := newSurface(1000, 100, 100, 100, 100, 100, 100)
	cfg := zeroGap()
	cfg.Columns = 2
	cfg.ColumnLock = true

	e := NewEngine()
	e.Layout(s, cfg)
	before := make(map[string]int)
	for _, it := range s.items {
		before[it.id] = it.last().Column
	}

	// Growing the first item would push later items into column 1 without
	// the lock.
	s.items[0].height = 400
	res, _ := e.Layout(s, cfg)

	for _, it := range s.items {
		if got := it.last().Column; got != before[it.id] {
			t.Errorf("%s moved from column %d to %d", it.id, before[it.id], got)
		}
	}
	// Only item-1's column-mates move down.
	for _, id := range res.Changed {
		if before[id] != 0 {
			t.Errorf("%s in column %d rewritten although its column did not change", id, before[id])
		}
	}
	if s.items[2].last().Top != 400 {
		t.Errorf("item-3 top = %v, want 400", s.items[2].last().Top)
	}
}

func TestWithoutLockItemsRebalance(t *testing.T) {
	s := newSurface(1000, 100, 100, 100, 100)
	cfg := zeroGap()
	cfg.Columns = 2

	e := NewEngine()
	e.Layout(s, cfg)
	s.items[0].height = 400
	e.Layout(s, cfg)

	if got := s.items[2].last().Column; got != 1 {
		t.Errorf("item-3 column = %d, want 1 after item-1 grew", got)
	}
}

func TestColumnCountChangeReassignsLockedItems(t *testing.T) {
	s := newSurface(1200, 100, 100, 100, 100, 100, 100)
	cfg := zeroGap()
	cfg.ColumnLock = true

	e := NewEngine()
	e.Layout(s, cfg) // 3 columns
	if e.ColumnCount() != 3 {
		t.Fatalf("column count = %d, want 3", e.ColumnCount())
	}

	s.width = 800
	res, _ := e.Layout(s, cfg) // 2 columns
	if !res.Reordered {
		t.Error("column count change not reported as reorder")
	}
	for _, it := range s.items {
		if c := it.last().Column; c >= 2 {
			t.Errorf("%s left in column %d after shrinking to 2 columns", it.id, c)
		}
	}
	if s.distributed != 1 {
		t.Errorf("distributed flag raised %d times, want once", s.distributed)
	}
}

func TestNotAttachedSkipsPass(t *testing.T) {
	s := newSurface(0, 100, 200)
	e := NewEngine()
	if _, ok := e.Layout(s, DefaultConfig()); ok {
		t.Error("Layout() ran on a zero-width container")
	}
	for _, it := range s.items {
		if it.writes() != 0 {
			t.Errorf("%s written while detached", it.id)
		}
	}
	if e.Snapshot() != nil {
		t.Error("Snapshot() should be nil before the first commit")
	}
}

func TestRemovedItemsAreForgotten(t *testing.T) {
	s := newSurface(1000, 100, 200, 300)
	e := NewEngine()
	e.Layout(s, DefaultConfig())

	s.items = s.items[1:]
	res, _ := e.Layout(s, DefaultConfig())
	if res.Forgotten != 1 {
		t.Errorf("forgotten = %d, want 1", res.Forgotten)
	}
	if _, ok := e.Placement("item-1"); ok {
		t.Error("record of removed item still cached")
	}
}

func TestNewItemsReportedAsPlaced(t *testing.T) {
	s := newSurface(1000, 100)
	e := NewEngine()
	e.Layout(s, DefaultConfig())

	s.items = append(s.items, &fakeItem{id: "late", height: 40})
	res, _ := e.Layout(s, DefaultConfig())
	if len(res.Placed) != 1 || res.Placed[0] != "late" {
		t.Errorf("placed = %v, want [late]", res.Placed)
	}
	if res.Distributed {
		t.Error("distributed reported again on a later pass")
	}
}

func TestColumnsPositioningComparesColumnOnly(t *testing.T) {
	s := newSurface(1000, 100, 100, 100)
	cfg := zeroGap()
	cfg.Columns = 2
	cfg.Positioning = PositionColumns

	e := NewEngine()
	e.Layout(s, cfg)

	// Same columns, different offsets.
	s.items[0].height = 105
	res, _ := e.Layout(s, cfg)
	if len(res.Changed) != 0 {
		t.Errorf("column mode rewrote %v although no column changed", res.Changed)
	}
}

func TestRestoreCarriesColumnLock(t *testing.T) {
	cfg := zeroGap()
	cfg.Columns = 2
	cfg.ColumnLock = true

	s := newSurface(1000, 100, 100, 100, 100)
	e := NewEngine()
	e.Layout(s, cfg)
	snap := e.Snapshot()

	data, err := MarshalSnapshot(snap)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	restored, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}

	next := NewEngine()
	next.Restore(restored)
	s.items[0].height = 400
	next.Layout(s, cfg)
	if got := s.items[2].last().Column; got != 0 {
		t.Errorf("item-3 column = %d after restore, want locked column 0", got)
	}
}

func TestRestoreWritesToFreshSurface(t *testing.T) {
	cfg := zeroGap()
	cfg.Columns = 2
	cfg.ColumnLock = true

	e := NewEngine()
	e.Layout(newSurface(1000, 100, 50, 80), cfg)
	snap := e.Snapshot()

	fresh := newSurface(1000, 100, 50, 80)
	next := NewEngine()
	next.Restore(snap)
	res, ok := next.Layout(fresh, cfg)
	if !ok {
		t.Fatal("pass skipped")
	}

	for _, it := range fresh.items {
		if it.writes() != 1 {
			t.Errorf("%s written %d times, want 1", it.id, it.writes())
		}
	}
	if len(res.Changed) != 3 {
		t.Errorf("Changed = %v, want all three items", res.Changed)
	}
	if len(res.Placed) != 0 {
		t.Errorf("Placed = %v, want none for restored items", res.Placed)
	}
	if fresh.heightSets != 1 || fresh.height != 130 {
		t.Errorf("height = %g after %d writes, want 130 after 1", fresh.height, fresh.heightSets)
	}
	if fresh.columns != 2 {
		t.Errorf("columns = %d, want 2", fresh.columns)
	}
	if fresh.distributed != 1 {
		t.Errorf("distributed set %d times, want 1", fresh.distributed)
	}

	again, _ := next.Layout(fresh, cfg)
	if len(again.Changed) != 0 || fresh.heightSets != 1 {
		t.Errorf("second pass rewrote %v (height writes %d)", again.Changed, fresh.heightSets)
	}
}

func TestUnmarshalSnapshotRejectsInconsistentColumns(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no columns", data: `{"column_count":0,"heights":[]}`},
		{name: "height count mismatch", data: `{"column_count":2,"heights":[1]}`},
		{name: "entry out of range", data: `{"column_count":1,"heights":[1],"entries":[{"id":"a","placement":{"column":3}}]}`},
		{name: "not json", data: `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalSnapshot([]byte(tt.data)); err == nil {
				t.Error("UnmarshalSnapshot() error = nil, want error")
			}
		})
	}
}
