// Package store persists layout snapshots.
//
// A stored snapshot lets a later layout continue from it: restoring it into
// an engine keeps column lock intact across processes and requests. The
// HTTP API stores every layout it computes and serves renderings from the
// store.
//
// [Memory] keeps snapshots in process; package store/mongo keeps them in
// MongoDB.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
)

// ErrNotFound is returned when no snapshot has the requested ID.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "layout not found")

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 50

// Store persists snapshots by ID.
type Store interface {
	// Save stores s, assigning an ID and creation time when missing.
	Save(ctx context.Context, s *layout.Snapshot) error

	// Load returns the snapshot with id or ErrNotFound.
	Load(ctx context.Context, id string) (*layout.Snapshot, error)

	// Delete removes the snapshot with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns up to limit snapshots, newest first.
	List(ctx context.Context, limit int) ([]*layout.Snapshot, error)

	// Close releases resources held by the store.
	Close(ctx context.Context) error
}

// Prepare assigns an ID and creation time to s where they are missing.
// Implementations call it from Save.
func Prepare(s *layout.Snapshot, now time.Time) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now.UTC()
	}
}

// Memory is an in-process Store. It is safe for concurrent use and hands out
// copies, so callers cannot mutate stored snapshots.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string]*layout.Snapshot
	now       func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string]*layout.Snapshot), now: time.Now}
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, s *layout.Snapshot) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidSnapshot, "nil snapshot")
	}
	Prepare(s, m.now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.ID] = s.Clone()
	return nil
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context, id string) (*layout.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[id]; !ok {
		return ErrNotFound
	}
	delete(m.snapshots, id)
	return nil
}

// List implements Store.
func (m *Memory) List(ctx context.Context, limit int) ([]*layout.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	m.mu.RLock()
	out := make([]*layout.Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		out = append(out, s.Clone())
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *layout.Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements Store.
func (m *Memory) Close(context.Context) error { return nil }

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
