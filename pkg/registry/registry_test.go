package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/observability"
	"github.com/matzehuels/panegrid/pkg/placement"
)

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	geom, err := placement.NewGeometry(placement.DefaultGrid(), 1000, 800)
	require.NoError(t, err)
	reg, err := New(geom, opts...)
	require.NoError(t, err)
	return reg
}

func TestRegister_ExplicitCell(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	w, err := reg.Register(ctx, "a", At(7), Size{})
	require.NoError(t, err)
	assert.Equal(t, placement.Point{X: 400, Y: 200}, w.Pos)
	assert.Equal(t, DefaultWindowSize, w.Size)

	// Taken cell falls through to the lowest free one.
	w, err = reg.Register(ctx, "b", At(7), Size{W: 300, H: 150})
	require.NoError(t, err)
	assert.Equal(t, placement.Point{X: 0, Y: 0}, w.Pos)
	assert.Equal(t, Size{W: 300, H: 150}, w.Size)

	assert.Equal(t, placement.Occupied{0, 7}, reg.OccupiedCells())
}

func TestRegister_Auto(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	for i, cell := range []int{6, 7, 8} {
		_, err := reg.Register(ctx, fmt.Sprintf("fixed-%d", i), At(cell), Size{})
		require.NoError(t, err)
	}

	w, err := reg.Register(ctx, "auto", AutoPlace(1), Size{})
	require.NoError(t, err)
	assert.Equal(t, 16, reg.CellOf(w))
	assert.Equal(t, placement.Point{X: 200, Y: 600}, w.Pos)
}

func TestRegister_Idempotent(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	first, err := reg.Register(ctx, "a", At(3), Size{W: 120, H: 90})
	require.NoError(t, err)

	again, err := reg.Register(ctx, "a", At(12), Size{W: 500, H: 500})
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, reg.Len())
}

func TestRegister_GeneratedID(t *testing.T) {
	n := 0
	reg := newTestRegistry(t, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}))

	w, err := reg.Register(context.Background(), "", AutoPlace(1), Size{})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", w.ID)

	_, ok := reg.Get("gen-1")
	assert.True(t, ok)
}

func TestRegister_DefaultIDIsUUID(t *testing.T) {
	reg := newTestRegistry(t)
	w, err := reg.Register(context.Background(), "", At(0), Size{})
	require.NoError(t, err)
	assert.Len(t, w.ID, 36)
}

func TestRegister_InvalidArguments(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Register(ctx, "a", AutoPlace(-1), Size{})
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidSize), "got %v", err)

	_, err = reg.Register(ctx, "b", At(0), Size{W: -1, H: 10})
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidArgument), "got %v", err)

	_, err = reg.Register(ctx, "bad\x00id", At(0), Size{})
	assert.Error(t, err)

	assert.Equal(t, 0, reg.Len(), "failed registrations must not store anything")
}

func TestRegister_FullGridFallsBackToZero(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := reg.Register(ctx, fmt.Sprintf("w%02d", i), At(i), Size{})
		require.NoError(t, err)
	}

	w, err := reg.Register(ctx, "extra", AutoPlace(1), Size{})
	require.NoError(t, err)
	assert.Equal(t, placement.Point{X: 0, Y: 0}, w.Pos)

	w, err = reg.Register(ctx, "explicit", At(9), Size{})
	require.NoError(t, err)
	assert.Equal(t, placement.Point{X: 0, Y: 0}, w.Pos)
}

func TestRegister_EmitsPlacementHook(t *testing.T) {
	observability.Reset()
	defer observability.Reset()

	hooks := &recordingHooks{}
	observability.SetPlacementHooks(hooks)

	reg := newTestRegistry(t)
	_, err := reg.Register(context.Background(), "a", AutoPlace(1), Size{})
	require.NoError(t, err)
	_, err = reg.Register(context.Background(), "b", At(1), Size{})
	require.NoError(t, err)

	require.Len(t, hooks.events, 1, "only automatic placement reaches the engine")
	assert.Equal(t, 6, hooks.events[0].Cell)
	assert.False(t, hooks.events[0].Fallback)
	assert.Equal(t, 5, hooks.events[0].Columns)
}

func TestUpdate(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.Register(context.Background(), "a", At(0), Size{})
	require.NoError(t, err)

	pos := placement.Point{X: 610, Y: 420}
	w, err := reg.Update("a", Patch{Pos: &pos})
	require.NoError(t, err)
	assert.Equal(t, pos, w.Pos)
	assert.Equal(t, DefaultWindowSize, w.Size, "size untouched by a position patch")

	size := Size{W: 320, H: 240}
	w, err = reg.Update("a", Patch{Size: &size})
	require.NoError(t, err)
	assert.Equal(t, pos, w.Pos)
	assert.Equal(t, size, w.Size)

	assert.Equal(t, placement.Occupied{13}, reg.OccupiedCells())
}

func TestUpdate_Errors(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.Update("missing", Patch{})
	assert.True(t, perrors.Is(err, perrors.ErrCodeWindowNotFound))

	_, err = reg.Register(context.Background(), "a", At(0), Size{})
	require.NoError(t, err)

	bad := placement.Point{X: math.NaN(), Y: 0}
	_, err = reg.Update("a", Patch{Pos: &bad})
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidArgument))

	zero := Size{}
	_, err = reg.Update("a", Patch{Size: &zero})
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidArgument))
}

func TestRemove(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.Register(context.Background(), "a", At(4), Size{})
	require.NoError(t, err)

	require.NoError(t, reg.Remove("a"))
	assert.Empty(t, reg.OccupiedCells())
	assert.True(t, perrors.Is(reg.Remove("a"), perrors.ErrCodeWindowNotFound))
}

func TestList_SortedByID(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		_, err := reg.Register(ctx, id, AutoPlace(1), Size{})
		require.NoError(t, err)
	}

	var ids []string
	for _, w := range reg.List() {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestAutoPosition_ExcludesSelf(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Register(ctx, "self", At(6), Size{})
	require.NoError(t, err)

	withSelf, err := reg.AutoPosition(ctx, "", 1)
	require.NoError(t, err)
	withoutSelf, err := reg.AutoPosition(ctx, "self", 1)
	require.NoError(t, err)

	assert.Equal(t, 8, withSelf)
	assert.Equal(t, 6, withoutSelf)
}

func TestOccupiedCells_SharedCellCountsOnce(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Register(ctx, "a", At(0), Size{})
	require.NoError(t, err)
	_, err = reg.Register(ctx, "b", At(1), Size{})
	require.NoError(t, err)

	pos := placement.Point{X: 20, Y: 30}
	_, err = reg.Update("b", Patch{Pos: &pos})
	require.NoError(t, err)

	assert.Equal(t, placement.Occupied{0}, reg.OccupiedCells())
}

func TestResize(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Register(ctx, "a", At(7), Size{W: 150, H: 150})
	require.NoError(t, err)
	// Dragged inside cell 13 (row 2, col 3) but off its origin.
	pos := placement.Point{X: 650, Y: 470}
	_, err = reg.Update("a", Patch{Pos: &pos})
	require.NoError(t, err)

	require.NoError(t, reg.Resize(2000, 400))

	w, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, placement.Point{X: 1200, Y: 200}, w.Pos)
	assert.Equal(t, Size{W: 150, H: 150}, w.Size)
	assert.Equal(t, 2000.0, reg.Geometry().Width)
	assert.Equal(t, placement.Occupied{13}, reg.OccupiedCells(), "windows keep their cell")

	assert.Error(t, reg.Resize(0, 100))
	assert.Equal(t, 2000.0, reg.Geometry().Width, "failed resize leaves geometry alone")
}

func TestSnapshotRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()
	_, err := reg.Register(ctx, "playlist", At(7), Size{})
	require.NoError(t, err)
	_, err = reg.Register(ctx, "card", At(0), Size{W: 250, H: 100})
	require.NoError(t, err)

	data, err := json.Marshal(reg.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `[
		["card", {"pos": {"x": 0, "y": 0}, "size": {"w": 250, "h": 100}}],
		["playlist", {"pos": {"x": 400, "y": 200}, "size": {"w": 200, "h": 200}}]
	]`, string(data))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := newTestRegistry(t)
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, reg.List(), restored.List())
}

func TestSnapshotUnmarshal_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an array", `{"a": 1}`},
		{"single element", `[["a"]]`},
		{"id not a string", `[[1, {}]]`},
		{"state not an object", `[["a", 3]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap Snapshot
			assert.Error(t, json.Unmarshal([]byte(tt.data), &snap))
		})
	}
}

func TestRestore_RejectsInvalid(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.Register(context.Background(), "keep", At(0), Size{})
	require.NoError(t, err)

	err = reg.Restore(Snapshot{{ID: "", State: State{Size: DefaultWindowSize}}})
	assert.Error(t, err)

	err = reg.Restore(Snapshot{{ID: "x", State: State{}}})
	assert.Error(t, err)

	_, ok := reg.Get("keep")
	assert.True(t, ok, "failed restore leaves registry untouched")
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("w%d", i)
			_, err := reg.Register(ctx, id, AutoPlace(1), Size{})
			assert.NoError(t, err)
			_ = reg.OccupiedCells()
			_, _ = reg.AutoPosition(ctx, id, 1)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, reg.Len())
}

type recordingHooks struct {
	mu     sync.Mutex
	events []observability.PlaceEvent
}

func (h *recordingHooks) OnPlace(_ context.Context, e observability.PlaceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}
