package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
)

// File is the on-disk configuration, loaded from TOML or YAML.
//
//	[layout]
//	columns = 0
//	max_column_width = 320
//	gap = 16
//	column_lock = true
//	debounce_ms = 150
//
//	[cache]
//	redis = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	mongo = "mongodb://localhost:27017"
type File struct {
	Layout LayoutSection `toml:"layout" yaml:"layout"`
	Cache  CacheSection  `toml:"cache" yaml:"cache"`
	Server ServerSection `toml:"server" yaml:"server"`
}

// LayoutSection holds layout options. Unset fields keep the value they are
// applied on top of.
type LayoutSection struct {
	Columns        *int     `toml:"columns" yaml:"columns"`
	MaxColumnWidth *float64 `toml:"max_column_width" yaml:"max_column_width"`
	Gap            *float64 `toml:"gap" yaml:"gap"`
	ColumnLock     *bool    `toml:"column_lock" yaml:"column_lock"`
	Transition     *bool    `toml:"transition" yaml:"transition"`
	DebounceMS     *int     `toml:"debounce_ms" yaml:"debounce_ms"`
	Positioning    *string  `toml:"positioning" yaml:"positioning"`
}

// CacheSection configures the layout/artifact cache.
type CacheSection struct {
	Dir   string `toml:"dir" yaml:"dir"`
	Redis string `toml:"redis" yaml:"redis"`
	TTL   string `toml:"ttl" yaml:"ttl"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Addr          string `toml:"addr" yaml:"addr"`
	Mongo         string `toml:"mongo" yaml:"mongo"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database"`
}

// Load reads a configuration file. The format is chosen by extension:
// .toml, or .yaml/.yml.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return ParseTOML(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q (use .toml or .yaml)", ext)
	}
}

// ParseTOML decodes a TOML configuration. Unknown keys are rejected.
func ParseTOML(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	return &f, nil
}

// ParseYAML decodes a YAML configuration. Unknown keys are rejected.
func ParseYAML(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml config")
	}
	return &f, nil
}

// Apply overrides base with every field set in the section and normalizes
// the result.
func (s LayoutSection) Apply(base layout.Config) (layout.Config, []*errors.Error) {
	cfg := base
	if s.Columns != nil {
		cfg.Columns = *s.Columns
	}
	if s.MaxColumnWidth != nil {
		cfg.MaxColumnWidth = *s.MaxColumnWidth
	}
	if s.Gap != nil {
		cfg.Gap = *s.Gap
	}
	if s.ColumnLock != nil {
		cfg.ColumnLock = *s.ColumnLock
	}
	if s.Transition != nil {
		cfg.Transition = *s.Transition
	}
	if s.DebounceMS != nil {
		cfg.Debounce = time.Duration(*s.DebounceMS) * time.Millisecond
	}
	if s.Positioning != nil {
		cfg.Positioning = layout.Positioning(strings.ToLower(*s.Positioning))
	}
	cfg, fixes := cfg.Normalize()
	return cfg, errors.Warnings(fixes)
}

// LayoutConfig returns the file's layout options applied to the defaults.
func (f *File) LayoutConfig() (layout.Config, []*errors.Error) {
	if f == nil {
		return layout.DefaultConfig(), nil
	}
	return f.Layout.Apply(layout.DefaultConfig())
}

// CacheTTL parses the cache TTL, falling back to def when unset.
func (f *File) CacheTTL(def time.Duration) (time.Duration, error) {
	if f == nil || f.Cache.TTL == "" {
		return def, nil
	}
	d, err := time.ParseDuration(f.Cache.TTL)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "cache ttl %q is not a valid duration", f.Cache.TTL)
	}
	return d, nil
}
