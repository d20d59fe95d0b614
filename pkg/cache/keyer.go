package cache

import (
	"github.com/matzehuels/masonry/pkg/layout"
)

const (
	prefixLayout   = "layout"
	prefixArtifact = "artifact"
)

// Keyer derives cache keys. Different keyers let deployments namespace keys
// without touching the code that reads and writes entries.
type Keyer interface {
	// LayoutKey returns the key for a layout computed from the input with
	// the given hash.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for a rendering of the layout with the
	// given hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the items that determine a layout.
type LayoutKeyOpts struct {
	Width  float64       `json:"width"`
	Config layout.Config `json:"config"`

	// Previous is the hash of the snapshot the layout continues from, if
	// any. Column lock makes the result depend on it.
	Previous string `json:"previous,omitempty"`
}

// ArtifactKeyOpts are the inputs besides the layout that determine an
// artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Labels bool   `json:"labels,omitempty"`
	Guides bool   `json:"guides,omitempty"`
	Title  string `json:"title,omitempty"`
}

// DefaultKeyer produces keys of the form "layout:<sha256>" and
// "artifact:<format>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	// Debounce only affects live containers, never the computed layout.
	opts.Config.Debounce = 0
	return hashKey(prefixLayout, inputHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(prefixArtifact+":"+opts.Format, layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
