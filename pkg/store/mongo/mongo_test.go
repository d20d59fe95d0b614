package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/store"
)

// These tests run against a real server when MASONRY_TEST_MONGO is set,
// e.g. MASONRY_TEST_MONGO=mongodb://localhost:27017.
func connect(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MASONRY_TEST_MONGO")
	if uri == "" {
		t.Skip("MASONRY_TEST_MONGO not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := "masonry_test_" + uuid.NewString()[:8]
	s, err := Connect(ctx, uri, db)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_ = s.coll.Database().Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := connect(t)
	ctx := context.Background()

	snap := &layout.Snapshot{
		Width:       800,
		Config:      layout.DefaultConfig(),
		ColumnCount: 2,
		ColumnWidth: 388,
		Height:      90,
		Heights:     []float64{90, 60},
		Counts:      []int{2, 1},
		Entries: []layout.Entry{
			{ID: "a", ItemHeight: 50, Placement: layout.Placement{Column: 0, Width: 388}},
			{ID: "b", ItemHeight: 60, Placement: layout.Placement{Column: 1, Left: 412, Width: 388}},
			{ID: "c", ItemHeight: 40, Placement: layout.Placement{Column: 0, Top: 50, Width: 388}},
		},
	}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx, snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ColumnCount != 2 || len(got.Entries) != 3 || got.Entries[1].Placement.Left != 412 {
		t.Errorf("Load() = %+v", got)
	}
	if got.Config.Debounce != layout.DefaultDebounce {
		t.Errorf("Config.Debounce = %v", got.Config.Debounce)
	}

	list, err := s.List(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %d, %v", len(list), err)
	}

	if err := s.Delete(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, snap.ID); err != store.ErrNotFound {
		t.Errorf("Load after Delete error = %v", err)
	}
	if err := s.Delete(ctx, snap.ID); err != store.ErrNotFound {
		t.Errorf("second Delete error = %v", err)
	}
}
