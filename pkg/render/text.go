package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

const textCellWidth = 8

// Text renders the grid as rows of bracketed cells. Occupied cells show
// their window IDs, free cells are blank or, with scores, show the score.
// The best cell is marked with '*' and ineligible free cells with '-'.
func Text(geom placement.Geometry, windows []registry.Window, opts Options) string {
	cells := layoutCells(geom, windows, opts)

	var b strings.Builder
	for row := 0; row < geom.Grid.Rows; row++ {
		for col := 0; col < geom.Grid.Columns; col++ {
			if col > 0 {
				b.WriteByte(' ')
			}
			c := cells[geom.Grid.Index(row, col)]
			fmt.Fprintf(&b, "[%-*s]", textCellWidth, textContent(c, opts))
		}
		b.WriteByte('\n')
	}

	cw, ch := geom.CellSize()
	fmt.Fprintf(&b, "%dx%d grid, %d windows, cell %gx%g px\n",
		geom.Grid.Columns, geom.Grid.Rows, len(windows), cw, ch)
	return b.String()
}

func textContent(c cellInfo, opts Options) string {
	switch {
	case len(c.windows) > 0:
		return truncate(cellLabel(c), textCellWidth)
	case !opts.Scores:
		return ""
	case !c.eligible:
		return "-"
	case c.best:
		return fmt.Sprintf("*%+.2f", c.score)
	default:
		return fmt.Sprintf(" %+.2f", c.score)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
