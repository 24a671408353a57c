// Package registry tracks the windows placed on a grid.
//
// A [Registry] maps window IDs to their pixel position and size inside a
// [placement.Geometry]. It derives the occupied cell set from window
// positions and consults the placement engine when a window asks to be
// placed automatically:
//
//	geom, _ := placement.NewGeometry(placement.DefaultGrid(), 1000, 800)
//	reg, _ := registry.New(geom)
//
//	w, err := reg.Register(ctx, "playlist", registry.AutoPlace(1), registry.Size{})
//	reg.Update("playlist", registry.Patch{Pos: &placement.Point{X: 10, Y: 20}})
//	cells := reg.OccupiedCells()
//
// Registration is idempotent: registering an existing ID returns the stored
// window unchanged. [Registry.Resize] remaps every window into a new
// viewport using coordinate math only.
//
// [Snapshot] is the persisted form. It encodes to JSON as an array of
// [id, state] pairs:
//
//	[["playlist", {"pos": {"x": 400, "y": 200}, "size": {"w": 200, "h": 200}}]]
//
// A Registry is safe for concurrent use.
package registry
