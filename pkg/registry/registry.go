package registry

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/observability"
	"github.com/matzehuels/panegrid/pkg/placement"
)

// Registry maps window IDs to window state.
type Registry struct {
	mu          sync.RWMutex
	geom        placement.Geometry
	windows     map[string]State
	newID       func() string
	defaultSize Size
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator sets the function used to name windows registered with an
// empty ID. The default generates random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithDefaultSize sets the size given to windows registered without one.
func WithDefaultSize(s Size) Option {
	return func(r *Registry) {
		if validateSize(s) == nil {
			r.defaultSize = s
		}
	}
}

// New returns an empty registry for geom.
func New(geom placement.Geometry, opts ...Option) (*Registry, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		geom:        geom,
		windows:     make(map[string]State),
		newID:       uuid.NewString,
		defaultSize: DefaultWindowSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Geometry returns the current geometry.
func (r *Registry) Geometry() placement.Geometry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.geom
}

// Register adds a window and returns its state. If id is already registered
// the stored window is returned unchanged. An empty id is replaced with a
// generated one. A zero initial size means the default size.
func (r *Registry) Register(ctx context.Context, id string, req Request, initial Size) (Window, error) {
	if err := perrors.ValidateWindowID(id); err != nil {
		return Window{}, err
	}
	if initial.IsZero() {
		initial = r.defaultSize
	}
	if err := validateSize(initial); err != nil {
		return Window{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		id = r.newID()
	}
	if st, ok := r.windows[id]; ok {
		return Window{ID: id, State: st}, nil
	}

	occupied := r.occupiedLocked("")
	var cell int
	if req.Auto {
		var err error
		if cell, err = r.placeLocked(ctx, occupied, req.footprint()); err != nil {
			return Window{}, err
		}
	} else {
		cell = placement.FirstFree(r.geom.Grid, occupied, req.Cell)
	}

	st := State{Pos: r.geom.Origin(cell), Size: initial}
	r.windows[id] = st
	return Window{ID: id, State: st}, nil
}

// Update merges patch into the window's state.
func (r *Registry) Update(id string, patch Patch) (Window, error) {
	if patch.Pos != nil {
		if err := validatePoint(*patch.Pos); err != nil {
			return Window{}, err
		}
	}
	if patch.Size != nil {
		if err := validateSize(*patch.Size); err != nil {
			return Window{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.windows[id]
	if !ok {
		return Window{}, perrors.New(perrors.ErrCodeWindowNotFound, "window %q is not registered", id)
	}
	if patch.Pos != nil {
		st.Pos = *patch.Pos
	}
	if patch.Size != nil {
		st.Size = *patch.Size
	}
	r.windows[id] = st
	return Window{ID: id, State: st}, nil
}

// Remove deletes a window.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[id]; !ok {
		return perrors.New(perrors.ErrCodeWindowNotFound, "window %q is not registered", id)
	}
	delete(r.windows, id)
	return nil
}

// Get returns the window with the given id.
func (r *Registry) Get(id string) (Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.windows[id]
	return Window{ID: id, State: st}, ok
}

// Len returns the number of windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// List returns all windows sorted by ID.
func (r *Registry) List() []Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// CellOf returns the cell a window's position falls in.
func (r *Registry) CellOf(w Window) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.geom.CellAt(w.Pos)
}

// OccupiedCells returns the cells holding a window, one per window.
func (r *Registry) OccupiedCells() placement.Occupied {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.occupiedLocked("")
}

// AutoPosition returns the cell the placement engine picks for a
// footprint×footprint window, ignoring the window excludeID so that a window
// can be re-placed without counting itself.
func (r *Registry) AutoPosition(ctx context.Context, excludeID string, footprint int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.placeLocked(ctx, r.occupiedLocked(excludeID), footprint)
}

// Resize moves the registry into a width×height viewport. Each window keeps
// its cell: the cell is computed in the old viewport and the position reset
// to that cell's origin in the new one. Sizes are unchanged.
func (r *Registry) Resize(width, height float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := placement.NewGeometry(r.geom.Grid, width, height)
	if err != nil {
		return err
	}
	for id, st := range r.windows {
		st.Pos = r.geom.Remap(st.Pos, next)
		r.windows[id] = st
	}
	r.geom = next
	return nil
}

// Snapshot returns the registry contents sorted by ID.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	windows := r.listLocked()
	snap := make(Snapshot, len(windows))
	for i, w := range windows {
		snap[i] = Entry{ID: w.ID, State: w.State}
	}
	return snap
}

// Restore replaces the registry contents with snap.
func (r *Registry) Restore(snap Snapshot) error {
	windows := make(map[string]State, len(snap))
	for _, e := range snap {
		if e.ID == "" {
			return perrors.New(perrors.ErrCodeInvalidArgument, "snapshot entry has an empty id")
		}
		if err := perrors.ValidateWindowID(e.ID); err != nil {
			return err
		}
		if err := validateState(e.State); err != nil {
			return perrors.Wrap(perrors.ErrCodeInvalidArgument, err, "snapshot entry %q", e.ID)
		}
		windows[e.ID] = e.State
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = windows
	return nil
}

func (r *Registry) listLocked() []Window {
	out := make([]Window, 0, len(r.windows))
	for id, st := range r.windows {
		out = append(out, Window{ID: id, State: st})
	}
	slices.SortFunc(out, func(a, b Window) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry) occupiedLocked(excludeID string) placement.Occupied {
	cells := make([]int, 0, len(r.windows))
	for id, st := range r.windows {
		if id == excludeID {
			continue
		}
		cells = append(cells, r.geom.CellAt(st.Pos))
	}
	return placement.NewOccupied(cells...)
}

func (r *Registry) placeLocked(ctx context.Context, occupied placement.Occupied, footprint int) (int, error) {
	start := time.Now()
	grid := r.geom.Grid
	cell, err := placement.FindOptimalPosition(grid, occupied, footprint)
	observability.Placement().OnPlace(ctx, observability.PlaceEvent{
		Columns:  grid.Columns,
		Rows:     grid.Rows,
		Occupied: len(occupied),
		Size:     footprint,
		Cell:     cell,
		Fallback: err == nil && placement.IsFallback(grid, occupied, footprint, cell),
		Duration: time.Since(start),
		Err:      err,
	})
	return cell, err
}
