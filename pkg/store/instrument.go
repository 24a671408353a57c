package store

import (
	"context"
	"time"

	"github.com/matzehuels/panegrid/pkg/observability"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// instrumented reports Load and Save calls to the observability hooks.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so that loads and saves are reported to
// observability.Store() under the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (s *instrumented) Load(ctx context.Context, layout string) (registry.Snapshot, error) {
	start := time.Now()
	snap, err := s.Store.Load(ctx, layout)
	observability.Store().OnLoad(ctx, s.backend, layout, len(snap), time.Since(start), err)
	return snap, err
}

func (s *instrumented) Save(ctx context.Context, layout string, snap registry.Snapshot) error {
	start := time.Now()
	err := s.Store.Save(ctx, layout, snap)
	observability.Store().OnSave(ctx, s.backend, layout, len(snap), time.Since(start), err)
	return err
}
