package layout

import "slices"

// Heights tracks the running height of each column during one layout pass,
// together with how many items each column holds. Columns are indexed from
// zero; the length always equals the column count of the pass.
type Heights struct {
	heights []float64
	counts  []int
}

// NewHeights returns a height map with n empty columns (n >= 1).
func NewHeights(n int) *Heights {
	n = max(1, n)
	return &Heights{
		heights: make([]float64, n),
		counts:  make([]int, n),
	}
}

// Len returns the number of columns.
func (h *Heights) Len() int {
	if h == nil {
		return 0
	}
	return len(h.heights)
}

// Height returns the consumed height of column i.
func (h *Heights) Height(i int) float64 { return h.heights[i] }

// Count returns the number of items placed in column i during this pass.
func (h *Heights) Count(i int) int { return h.counts[i] }

// Place records an item occupying [top, top+height) in column i.
func (h *Heights) Place(i int, top, height float64) {
	h.heights[i] = top + height
	h.counts[i]++
}

// Shortest returns the column the next unlocked item should go to.
func (h *Heights) Shortest() int { return ShortestColumn(h.heights) }

// Tallest returns the height of the tallest column.
func (h *Heights) Tallest() float64 { return TallestColumnHeight(h.heights) }

// Values returns a copy of the column heights.
func (h *Heights) Values() []float64 {
	if h == nil {
		return nil
	}
	return slices.Clone(h.heights)
}

// Counts returns a copy of the per-column item counts.
func (h *Heights) Counts() []int {
	if h == nil {
		return nil
	}
	return slices.Clone(h.counts)
}

// Clone returns an independent copy.
func (h *Heights) Clone() *Heights {
	if h == nil {
		return nil
	}
	return &Heights{heights: slices.Clone(h.heights), counts: slices.Clone(h.counts)}
}

// heightsFrom rebuilds a tracker from persisted values. Counts may be nil.
func heightsFrom(values []float64, counts []int) *Heights {
	if len(values) == 0 {
		return nil
	}
	h := &Heights{heights: slices.Clone(values), counts: make([]int, len(values))}
	copy(h.counts, counts)
	return h
}
