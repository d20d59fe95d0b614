package sink

import (
	"encoding/json"

	"github.com/matzehuels/masonry/pkg/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	columns bool
}

// WithJSONColumns appends a per-column summary (height and item IDs in
// stacking order). Readers of the snapshot ignore it.
func WithJSONColumns() JSONOption { return func(r *jsonRenderer) { r.columns = true } }

type jsonOutput struct {
	*layout.Snapshot
	Columns []jsonColumn `json:"columns,omitempty"`
}

type jsonColumn struct {
	Index  int      `json:"index"`
	Height float64  `json:"height"`
	Items  []string `json:"items"`
}

// RenderJSON exports the snapshot as a pretty-printed JSON document in the
// format read by [layout.UnmarshalSnapshot]. It does not modify s and is safe
// to call concurrently.
func RenderJSON(s *layout.Snapshot, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{Snapshot: s}
	if r.columns {
		out.Columns = buildJSONColumns(s)
	}
	return json.MarshalIndent(out, "", "  ")
}

func buildJSONColumns(s *layout.Snapshot) []jsonColumn {
	cols := make([]jsonColumn, s.ColumnCount)
	for i := range cols {
		cols[i] = jsonColumn{Index: i, Items: []string{}}
		if i < len(s.Heights) {
			cols[i].Height = s.Heights[i]
		}
		for _, e := range s.Column(i) {
			cols[i].Items = append(cols[i].Items, e.ID)
		}
	}
	return cols
}
