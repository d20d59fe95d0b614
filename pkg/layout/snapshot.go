package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Snapshot is the serializable form of a committed layout. It is what the
// pipeline caches, the store persists and the sinks render.
type Snapshot struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	Width       float64   `json:"width" bson:"width"`
	Config      Config    `json:"config" bson:"config"`
	ColumnCount int       `json:"column_count" bson:"column_count"`
	ColumnWidth float64   `json:"column_width" bson:"column_width"`
	Height      float64   `json:"height" bson:"height"`
	Heights     []float64 `json:"heights" bson:"heights"`
	Counts      []int     `json:"counts,omitempty" bson:"counts,omitempty"`
	Entries     []Entry   `json:"entries" bson:"entries"`
}

// Column returns the entries of column i in top-to-bottom order.
func (s *Snapshot) Column(i int) []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Placement.Column == i {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot exports the last committed pass. It returns nil before the first
// commit.
func (e *Engine) Snapshot() *Snapshot {
	if !e.committed {
		return nil
	}
	entries := make([]Entry, len(e.entries))
	copy(entries, e.entries)
	for i := range entries {
		entries[i].Changed, entries[i].First = false, false
	}
	return &Snapshot{
		Width:       e.width,
		Config:      e.config,
		ColumnCount: e.columns,
		ColumnWidth: ColumnWidth(e.width, e.config.Gap, e.columns),
		Height:      e.height,
		Heights:     e.prev.Values(),
		Counts:      e.prev.Counts(),
		Entries:     entries,
	}
}

// Restore replaces the engine's history with s, so column lock carries
// across processes. The surface the engine drives next has not seen s, so
// the next commit writes every item, the height, the column count and the
// distributed flag, whatever the restored records say.
func (e *Engine) Restore(s *Snapshot) {
	e.Reset()
	if s == nil {
		return
	}
	for _, entry := range s.Entries {
		e.cache.Set(entry.ID, entry.Placement)
	}
	e.entries = append([]Entry(nil), s.Entries...)
	e.prev = heightsFrom(s.Heights, s.Counts)
	e.width = s.Width
	e.config = s.Config
	e.height = s.Height
	e.columns = s.ColumnCount
	e.committed = true
	e.distributed = len(s.Entries) > 0
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Heights = append([]float64(nil), s.Heights...)
	out.Counts = append([]int(nil), s.Counts...)
	out.Entries = append([]Entry(nil), s.Entries...)
	return &out
}

// MarshalSnapshot serializes s to pretty-printed JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot parses JSON produced by [MarshalSnapshot] and checks that
// the column data is consistent.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if s.ColumnCount < 1 {
		return nil, fmt.Errorf("snapshot must have at least one column")
	}
	if len(s.Heights) != s.ColumnCount {
		return nil, fmt.Errorf("snapshot has %d column heights for %d columns", len(s.Heights), s.ColumnCount)
	}
	for _, e := range s.Entries {
		if e.Placement.Column < 0 || e.Placement.Column >= s.ColumnCount {
			return nil, fmt.Errorf("entry %q placed in column %d of %d", e.ID, e.Placement.Column, s.ColumnCount)
		}
	}
	return &s, nil
}

// ReadSnapshotFile loads a snapshot from a JSON file.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshot(data)
}

// WriteSnapshotFile writes s to path as JSON.
func WriteSnapshotFile(s *Snapshot, path string) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
