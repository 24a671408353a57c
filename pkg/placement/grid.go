package placement

import (
	"slices"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
)

// Default grid dimensions.
const (
	DefaultColumns = 5
	DefaultRows    = 4
)

// MaxCells bounds the number of cells in a grid. Placement work and memory
// grow with the cell count.
const MaxCells = 1 << 16

// Grid is a fixed logical placement grid.
type Grid struct {
	Columns int `json:"columns" toml:"columns"`
	Rows    int `json:"rows" toml:"rows"`
}

// DefaultGrid returns the 5×4 grid.
func DefaultGrid() Grid {
	return Grid{Columns: DefaultColumns, Rows: DefaultRows}
}

// Validate reports an INVALID_GRID error when either dimension is not
// positive or the grid has more than [MaxCells] cells.
func (g Grid) Validate() error {
	if g.Columns <= 0 || g.Rows <= 0 {
		return perrors.New(perrors.ErrCodeInvalidGrid, "grid dimensions must be positive, got %dx%d", g.Columns, g.Rows)
	}
	// Divide rather than multiply so huge dimensions cannot overflow.
	if g.Rows > MaxCells/g.Columns {
		return perrors.New(perrors.ErrCodeInvalidGrid, "grid %dx%d exceeds %d cells", g.Columns, g.Rows, MaxCells)
	}
	return nil
}

// Cells returns the total number of cells.
func (g Grid) Cells() int { return g.Columns * g.Rows }

// Contains reports whether idx addresses a cell of g.
func (g Grid) Contains(idx int) bool { return idx >= 0 && idx < g.Cells() }

// Coord returns the row and column of idx.
func (g Grid) Coord(idx int) (row, col int) {
	return idx / g.Columns, idx % g.Columns
}

// Index returns the cell index at row, col.
func (g Grid) Index(row, col int) int {
	return row*g.Columns + col
}

// Fits reports whether a size×size window anchored at idx stays inside g.
func (g Grid) Fits(idx, size int) bool {
	if !g.Contains(idx) {
		return false
	}
	row, col := g.Coord(idx)
	return col+size <= g.Columns && row+size <= g.Rows
}

// Occupied is a set of cell indices in use.
//
// Use [NewOccupied] to build one; it sorts and removes duplicates so that
// iteration order, and therefore floating-point summation, is stable.
type Occupied []int

// NewOccupied returns the set of the given cells.
func NewOccupied(cells ...int) Occupied {
	o := slices.Clone(cells)
	slices.Sort(o)
	return Occupied(slices.Compact(o))
}

// Has reports whether idx is in the set.
func (o Occupied) Has(idx int) bool {
	_, found := slices.BinarySearch(o, idx)
	return found
}

// With returns a new set that also contains idx.
func (o Occupied) With(idx int) Occupied {
	return NewOccupied(append(slices.Clone(o), idx)...)
}

// Validate checks that every cell lies inside g.
func (o Occupied) Validate(g Grid) error {
	for _, idx := range o {
		if !g.Contains(idx) {
			return perrors.New(perrors.ErrCodeInvalidArgument, "occupied cell %d outside grid of %d cells", idx, g.Cells())
		}
	}
	return nil
}

// isSet reports whether o is strictly ascending, as [NewOccupied] leaves it.
func (o Occupied) isSet() bool {
	for i := 1; i < len(o); i++ {
		if o[i] <= o[i-1] {
			return false
		}
	}
	return true
}

// normalize returns a sorted, de-duplicated copy of o.
func (o Occupied) normalize() Occupied {
	return NewOccupied(o...)
}

func validateSize(size int) error {
	if size < 1 {
		return perrors.New(perrors.ErrCodeInvalidSize, "window size must be >= 1, got %d", size)
	}
	return nil
}
