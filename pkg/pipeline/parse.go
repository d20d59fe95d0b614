package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/masonry/pkg/errors"
)

// Input is an items file: the children of a container, optionally with the
// container width and layout attributes.
//
// JSON inputs may also be a bare array of items.
type Input struct {
	Width      float64        `json:"width,omitempty" toml:"width" yaml:"width"`
	Attributes map[string]any `json:"attributes,omitempty" toml:"attributes" yaml:"attributes"`
	Items      []Item         `json:"items" toml:"items" yaml:"items"`
}

// Input formats recognized by [ParseInput].
const (
	InputJSON = "json"
	InputTOML = "toml"
	InputYAML = "yaml"
)

// ReadInputFile loads an items file, choosing the parser by extension.
// Unknown extensions are read as JSON.
func ReadInputFile(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "items file not found: %s", path)
		}
		return nil, fmt.Errorf("read items: %w", err)
	}
	return ParseInput(data, InputFormat(path))
}

// InputFormat returns the input format implied by a file name.
func InputFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return InputTOML
	case ".yaml", ".yml":
		return InputYAML
	default:
		return InputJSON
	}
}

// ParseInput decodes an items document.
func ParseInput(data []byte, format string) (*Input, error) {
	var in Input
	switch format {
	case InputJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &in.Items); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse items")
			}
			break
		}
		if err := json.Unmarshal(trimmed, &in); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse items")
		}
	case InputTOML:
		if _, err := toml.Decode(string(data), &in); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse items")
		}
	case InputYAML:
		if err := yaml.Unmarshal(data, &in); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse items")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported items format %q", format)
	}
	return &in, nil
}

// StringAttributes returns the attributes with every value rendered as the
// string an element attribute would carry.
func (in *Input) StringAttributes() map[string]string {
	if len(in.Attributes) == 0 {
		return nil
	}
	out := make(map[string]string, len(in.Attributes))
	for k, v := range in.Attributes {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Apply copies the input into opts. Values already set on opts win, so
// command-line flags override the file.
func (in *Input) Apply(opts *Options) {
	opts.Items = in.Items
	if opts.Width == 0 {
		opts.Width = in.Width
	}
	attrs := in.StringAttributes()
	if len(attrs) == 0 {
		return
	}
	merged := make(map[string]string, len(attrs)+len(opts.Attributes))
	for k, v := range attrs {
		merged[k] = v
	}
	for k, v := range opts.Attributes {
		merged[k] = v
	}
	opts.Attributes = merged
}
