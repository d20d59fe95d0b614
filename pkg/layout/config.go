package layout

import (
	"fmt"
	"math"
	"time"
)

// Default configuration values.
const (
	// DefaultMaxColumnWidth is the widest a column may get when the column
	// count is derived from the container width.
	DefaultMaxColumnWidth = 400.0

	// DefaultGap is the spacing between columns and between stacked items.
	DefaultGap = 24.0

	// DefaultDebounce is the coalescing window for resize and mutation events.
	DefaultDebounce = 300 * time.Millisecond

	// ColumnsAuto derives the column count from the available width.
	ColumnsAuto = 0
)

// Positioning selects how placements are applied to items.
type Positioning string

const (
	// PositionAbsolute gives every item explicit top/left/width coordinates.
	PositionAbsolute Positioning = "absolute"

	// PositionColumns only moves items between columns and lets the host
	// stack them (flow layout). Offsets are still computed for reporting.
	PositionColumns Positioning = "columns"
)

// Config is the layout configuration of a container. It is passed explicitly
// into every pass; use [Config.Normalize] at the boundary where it is built.
type Config struct {
	Columns        int           `json:"columns" bson:"columns" toml:"columns" yaml:"columns"`
	MaxColumnWidth float64       `json:"max_column_width" bson:"max_column_width" toml:"max_column_width" yaml:"max_column_width"`
	Gap            float64       `json:"gap" bson:"gap" toml:"gap" yaml:"gap"`
	ColumnLock     bool          `json:"column_lock,omitempty" bson:"column_lock,omitempty" toml:"column_lock" yaml:"column_lock"`
	Transition     bool          `json:"transition,omitempty" bson:"transition,omitempty" toml:"transition" yaml:"transition"`
	Debounce       time.Duration `json:"debounce" bson:"debounce" toml:"-" yaml:"-"`
	Positioning    Positioning   `json:"positioning,omitempty" bson:"positioning,omitempty" toml:"positioning" yaml:"positioning"`
}

// DefaultConfig returns the documented defaults: auto columns up to 400px wide,
// a 24px gap, no column lock, no transitions and a 300ms debounce.
func DefaultConfig() Config {
	return Config{
		Columns:        ColumnsAuto,
		MaxColumnWidth: DefaultMaxColumnWidth,
		Gap:            DefaultGap,
		Debounce:       DefaultDebounce,
		Positioning:    PositionAbsolute,
	}
}

// Normalize returns a copy of c in which every out-of-range field is replaced
// by its default, together with a description of each replacement. It never
// fails: a bad option must not stop layout for the other items.
func (c Config) Normalize() (Config, []string) {
	var fixes []string
	d := DefaultConfig()

	if c.Columns < 0 {
		fixes = append(fixes, fmt.Sprintf("columns %d out of range, using auto", c.Columns))
		c.Columns = d.Columns
	}
	if !(c.MaxColumnWidth > 0) || math.IsInf(c.MaxColumnWidth, 0) {
		fixes = append(fixes, fmt.Sprintf("max column width %v out of range, using %v", c.MaxColumnWidth, d.MaxColumnWidth))
		c.MaxColumnWidth = d.MaxColumnWidth
	}
	if !(c.Gap >= 0) || math.IsInf(c.Gap, 0) {
		fixes = append(fixes, fmt.Sprintf("gap %v out of range, using %v", c.Gap, d.Gap))
		c.Gap = d.Gap
	}
	if c.Debounce < 0 {
		fixes = append(fixes, fmt.Sprintf("debounce %v out of range, using %v", c.Debounce, d.Debounce))
		c.Debounce = d.Debounce
	}
	switch c.Positioning {
	case PositionAbsolute, PositionColumns:
	case "":
		c.Positioning = d.Positioning
	default:
		fixes = append(fixes, fmt.Sprintf("unknown positioning %q, using %q", c.Positioning, d.Positioning))
		c.Positioning = d.Positioning
	}
	return c, fixes
}

// ColumnCount returns the column count for the given container width.
func (c Config) ColumnCount(width float64) int {
	return ColumnCount(width, c.Columns, c.MaxColumnWidth)
}

// IsAuto reports whether the column count is derived from the width.
func (c Config) IsAuto() bool { return c.Columns == ColumnsAuto }
