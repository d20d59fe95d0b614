package layout

import "math"

// Slack is the tolerance in pixels within which two column heights count as
// equal when picking the shortest column. A later column must be shorter than
// the running minimum by more than Slack to win, so floating-point jitter
// never makes an item oscillate between two nearly-equal columns.
const Slack = 10.0

const eps = 1e-9

// Point is a top/left offset relative to the container's content box.
type Point struct {
	Top  float64 `json:"top" bson:"top"`
	Left float64 `json:"left" bson:"left"`
}

// ColumnCount returns the number of columns the grid should have.
//
// A concrete column count (>= 1) is returned as-is. Auto (0) derives the
// count from the available width, never returning less than one column.
// Negative counts are treated as one column; a non-positive maxColWidth
// falls back to [DefaultMaxColumnWidth].
func ColumnCount(totalWidth float64, columns int, maxColWidth float64) int {
	if columns > 0 {
		return columns
	}
	if columns < 0 {
		return 1
	}
	if maxColWidth <= 0 || math.IsNaN(maxColWidth) {
		maxColWidth = DefaultMaxColumnWidth
	}
	if totalWidth <= 0 || math.IsNaN(totalWidth) {
		return 1
	}
	return max(1, int(math.Floor(totalWidth/maxColWidth)))
}

// ColumnWidth returns the width of a single column so that colCount columns
// and colCount-1 gaps exactly fill totalWidth.
func ColumnWidth(totalWidth, gap float64, colCount int) float64 {
	n := float64(max(1, colCount))
	return totalWidth/n - gap*(n-1)/n
}

// ItemPosition returns the offset of the next item placed in column.
//
// The first occupant of a column sits flush with the top of the container;
// every later occupant is separated from the one above it by gap. Occupancy
// is tracked per column by heights, so irregular first rows are handled.
func ItemPosition(width, gap float64, column int, heights *Heights) Point {
	top := heights.Height(column)
	if heights.Count(column) > 0 {
		top += gap
	}
	return Point{
		Top:  top,
		Left: (width + gap) * float64(column),
	}
}

// ShortestColumn returns the index of the column with the smallest height.
// The lowest index holding the running minimum wins unless a later column is
// shorter by more than [Slack]. Exact ties always resolve to the lower index.
func ShortestColumn(heights []float64) int {
	best := 0
	bestHeight := math.Inf(1)
	for i, h := range heights {
		if i == 0 || h < bestHeight-Slack {
			best, bestHeight = i, h
		}
	}
	return best
}

// TallestColumnHeight returns the maximum height over all columns, or 0 for
// an empty map. It is used to size the container.
func TallestColumnHeight(heights []float64) float64 {
	var tallest float64
	for _, h := range heights {
		if h > tallest {
			tallest = h
		}
	}
	return tallest
}

// nearlyEqual reports whether a and b differ by less than eps.
func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}
