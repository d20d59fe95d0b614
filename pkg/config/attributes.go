package config

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
)

// Attribute names understood by [ApplyAttributes]. Aliases map to the same
// field; matching is case-insensitive.
const (
	AttrColumns        = "columns"
	AttrCols           = "cols"
	AttrMaxColumnWidth = "maxcolwidth"
	AttrGap            = "gap"
	AttrSpacing        = "spacing"
	AttrColumnLock     = "columnlock"
	AttrTransition     = "transition"
	AttrDebounce       = "debounce"
	AttrPositioning    = "positioning"
)

// Attributes lists every recognised attribute name.
var Attributes = []string{
	AttrColumns, AttrCols, AttrMaxColumnWidth, AttrGap, AttrSpacing,
	AttrColumnLock, AttrTransition, AttrDebounce, AttrPositioning,
}

// leadingNumber matches the numeric prefix of a value like "24px" or "1.5e2".
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// FromAttributes builds a configuration from string attributes on top of
// [layout.DefaultConfig].
func FromAttributes(attrs map[string]string) (layout.Config, []*errors.Error) {
	return ApplyAttributes(layout.DefaultConfig(), attrs)
}

// ApplyAttributes overrides fields of base with the given attributes and
// normalizes the result. Attributes apply in name order, so "columns"
// overrides "cols" when both are set. An unparseable value resets the field to
// its layout.DefaultConfig value, not the base value, and produces an
// INVALID_CONFIG warning. Unknown attribute names are ignored.
// The returned config is always usable.
func ApplyAttributes(base layout.Config, attrs map[string]string) (layout.Config, []*errors.Error) {
	cfg := base
	defaults := layout.DefaultConfig()
	var warnings []*errors.Error
	warn := func(name, value, want string) {
		resetField(&cfg, defaults, name)
		warnings = append(warnings, errors.New(errors.ErrCodeInvalidConfig,
			"attribute %s=%q is not %s, using default %s", name, value, want, current(defaults, name)))
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, rawName := range names {
		name := strings.ToLower(strings.TrimSpace(rawName))
		value := strings.TrimSpace(attrs[rawName])

		switch name {
		case AttrColumns, AttrCols:
			if value == "" || strings.EqualFold(value, "auto") {
				cfg.Columns = layout.ColumnsAuto
				continue
			}
			n, ok := parseNumber(value)
			if !ok {
				warn(name, value, "a number or auto")
				continue
			}
			cfg.Columns = int(math.Trunc(n))

		case AttrMaxColumnWidth:
			n, ok := parseNumber(value)
			if !ok {
				warn(name, value, "a number")
				continue
			}
			cfg.MaxColumnWidth = n

		case AttrGap, AttrSpacing:
			n, ok := parseNumber(value)
			if !ok {
				warn(name, value, "a number")
				continue
			}
			cfg.Gap = n

		case AttrColumnLock:
			b, ok := parseFlag(value)
			if !ok {
				warn(name, value, "a boolean")
				continue
			}
			cfg.ColumnLock = b

		case AttrTransition:
			b, ok := parseFlag(value)
			if !ok {
				warn(name, value, "a boolean")
				continue
			}
			cfg.Transition = b

		case AttrDebounce:
			d, ok := parseDebounce(value)
			if !ok {
				warn(name, value, "a duration")
				continue
			}
			cfg.Debounce = d

		case AttrPositioning:
			cfg.Positioning = layout.Positioning(strings.ToLower(value))
		}
	}

	cfg, fixes := cfg.Normalize()
	return cfg, append(warnings, errors.Warnings(fixes)...)
}

// ToAttributes renders cfg back into attribute form. Only fields that differ
// from the defaults are included.
func ToAttributes(cfg layout.Config) map[string]string {
	d := layout.DefaultConfig()
	out := make(map[string]string)
	if cfg.Columns != d.Columns {
		out[AttrColumns] = strconv.Itoa(cfg.Columns)
	}
	if cfg.MaxColumnWidth != d.MaxColumnWidth {
		out[AttrMaxColumnWidth] = formatFloat(cfg.MaxColumnWidth)
	}
	if cfg.Gap != d.Gap {
		out[AttrGap] = formatFloat(cfg.Gap)
	}
	if cfg.ColumnLock {
		out[AttrColumnLock] = ""
	}
	if cfg.Transition {
		out[AttrTransition] = ""
	}
	if cfg.Debounce != d.Debounce {
		out[AttrDebounce] = strconv.FormatInt(cfg.Debounce.Milliseconds(), 10)
	}
	if cfg.Positioning != "" && cfg.Positioning != d.Positioning {
		out[AttrPositioning] = string(cfg.Positioning)
	}
	return out
}

// parseNumber reads the numeric prefix of s, so "24px" is 24.
func parseNumber(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// parseFlag treats a present but empty attribute as true.
func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "", "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// parseDebounce accepts plain milliseconds ("300") or a Go duration ("1.5s").
func parseDebounce(s string) (time.Duration, bool) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	n, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return time.Duration(n * float64(time.Millisecond)), true
}

// resetField copies the field behind the attribute name from defaults.
func resetField(cfg *layout.Config, defaults layout.Config, name string) {
	switch name {
	case AttrColumns, AttrCols:
		cfg.Columns = defaults.Columns
	case AttrMaxColumnWidth:
		cfg.MaxColumnWidth = defaults.MaxColumnWidth
	case AttrGap, AttrSpacing:
		cfg.Gap = defaults.Gap
	case AttrColumnLock:
		cfg.ColumnLock = defaults.ColumnLock
	case AttrTransition:
		cfg.Transition = defaults.Transition
	case AttrDebounce:
		cfg.Debounce = defaults.Debounce
	}
}

func current(cfg layout.Config, name string) string {
	switch name {
	case AttrColumns, AttrCols:
		if cfg.IsAuto() {
			return "auto"
		}
		return strconv.Itoa(cfg.Columns)
	case AttrMaxColumnWidth:
		return formatFloat(cfg.MaxColumnWidth)
	case AttrGap, AttrSpacing:
		return formatFloat(cfg.Gap)
	case AttrColumnLock:
		return strconv.FormatBool(cfg.ColumnLock)
	case AttrTransition:
		return strconv.FormatBool(cfg.Transition)
	case AttrDebounce:
		return cfg.Debounce.String()
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
