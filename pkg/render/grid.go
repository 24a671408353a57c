package render

import (
	"slices"
	"strings"

	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// Options configures grid rendering.
type Options struct {
	// Scores annotates free cells with their placement score.
	Scores bool
	// Footprint is the window size in cells used for scores. Zero means 1.
	Footprint int
}

func (o Options) footprint() int {
	if o.Footprint < 1 {
		return 1
	}
	return o.Footprint
}

// cellInfo is what a renderer needs to know about one cell.
type cellInfo struct {
	idx      int
	row, col int
	windows  []string
	eligible bool
	score    float64
	best     bool
}

// layoutCells resolves windows to cells and, when requested, scores the
// free ones.
func layoutCells(geom placement.Geometry, windows []registry.Window, opts Options) []cellInfo {
	g := geom.Grid
	cells := make([]cellInfo, g.Cells())
	for i := range cells {
		cells[i].idx = i
		cells[i].row, cells[i].col = g.Coord(i)
	}

	occupied := make([]int, 0, len(windows))
	for _, w := range windows {
		idx := geom.CellAt(w.Pos)
		cells[idx].windows = append(cells[idx].windows, w.ID)
		occupied = append(occupied, idx)
	}
	for i := range cells {
		slices.Sort(cells[i].windows)
	}

	if !opts.Scores {
		return cells
	}
	ranked, err := placement.Rank(g, placement.NewOccupied(occupied...), opts.footprint())
	if err != nil {
		return cells
	}
	for i, c := range ranked {
		cells[c.Cell].eligible = true
		cells[c.Cell].score = c.Score.Total
		cells[c.Cell].best = i == 0
	}
	return cells
}

func cellLabel(c cellInfo) string {
	return strings.Join(c.windows, ",")
}
