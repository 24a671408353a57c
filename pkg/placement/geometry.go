package placement

import (
	"math"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
)

// Point is a pixel position, origin top-left.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Geometry is a grid drawn into a Width×Height pixel viewport.
type Geometry struct {
	Grid   Grid
	Width  float64
	Height float64
}

// NewGeometry returns the geometry of g in a width×height viewport.
func NewGeometry(g Grid, width, height float64) (Geometry, error) {
	geom := Geometry{Grid: g, Width: width, Height: height}
	return geom, geom.Validate()
}

// Validate checks the grid and that both viewport dimensions are positive.
func (m Geometry) Validate() error {
	if err := m.Grid.Validate(); err != nil {
		return err
	}
	if !(m.Width > 0) || !(m.Height > 0) {
		return perrors.New(perrors.ErrCodeInvalidArgument, "viewport must be positive, got %gx%g", m.Width, m.Height)
	}
	return nil
}

// CellSize returns the pixel width and height of one cell.
func (m Geometry) CellSize() (w, h float64) {
	return m.Width / float64(m.Grid.Columns), m.Height / float64(m.Grid.Rows)
}

// CellAt returns the cell containing p. Positions outside the viewport are
// clamped to the nearest edge cell so the result is always inside the grid.
func (m Geometry) CellAt(p Point) int {
	cw, ch := m.CellSize()
	col := cellOffset(p.X/cw, m.Grid.Columns)
	row := cellOffset(p.Y/ch, m.Grid.Rows)
	return m.Grid.Index(row, col)
}

// cellOffset floors v and clamps it to [0, n-1] before converting, since
// converting an out-of-range float to int is implementation-defined.
func cellOffset(v float64, n int) int {
	f := math.Floor(v)
	switch {
	case !(f > 0):
		return 0
	case f >= float64(n-1):
		return n - 1
	}
	return int(f)
}

// Origin returns the top-left pixel of cell idx.
func (m Geometry) Origin(idx int) Point {
	row, col := m.Grid.Coord(idx)
	cw, ch := m.CellSize()
	return Point{X: float64(col) * cw, Y: float64(row) * ch}
}

// Remap moves p to the origin of the equivalent cell in to. The row and
// column are found in m, clamped to the grid of to, and converted back to
// pixels with the cell size of to.
func (m Geometry) Remap(p Point, to Geometry) Point {
	row, col := m.Grid.Coord(m.CellAt(p))
	row = clamp(row, 0, to.Grid.Rows-1)
	col = clamp(col, 0, to.Grid.Columns-1)
	return to.Origin(to.Grid.Index(row, col))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
