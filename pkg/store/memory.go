package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// MemoryStore keeps encoded layouts in memory.
// Useful for testing or when nothing should outlive the process.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[string][]byte
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layouts: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, layout string) (registry.Snapshot, error) {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.layouts[layout]
	s.mu.RUnlock()

	if !ok {
		return registry.Snapshot{}, nil
	}
	return decode(layout, data)
}

func (s *MemoryStore) Save(ctx context.Context, layout string, snap registry.Snapshot) error {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return err
	}
	data, err := encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[layout] = data
	return nil
}

// SetRaw stores raw bytes under layout, bypassing encoding.
func (s *MemoryStore) SetRaw(layout string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[layout] = slices.Clone(data)
}

func (s *MemoryStore) Delete(ctx context.Context, layout string) error {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layouts, layout)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.layouts)), nil
}

// Close does nothing.
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
