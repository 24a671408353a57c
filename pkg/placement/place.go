package placement

import (
	"cmp"
	"math"
	"slices"
)

// FallbackCell is returned when no cell is eligible.
const FallbackCell = 0

// Candidate is an eligible cell and its score.
type Candidate struct {
	Cell  int            `json:"cell"`
	Row   int            `json:"row"`
	Col   int            `json:"col"`
	Score ScoreBreakdown `json:"score"`
}

// scoreTolerance is the largest difference between two scores that still
// counts as a tie. Scores are sums of square roots, so equal scores reached
// through different cells can differ in the last bits.
const scoreTolerance = 1e-9

// compareScores is cmp.Compare with scores within scoreTolerance treated
// as equal.
func compareScores(a, b float64) int {
	if math.Abs(a-b) <= scoreTolerance {
		return 0
	}
	return cmp.Compare(a, b)
}

// FindOptimalPosition returns the free cell with the highest [Score] at
// which a size×size window fits. Ties go to the lowest index. When no cell
// is eligible it returns [FallbackCell], which may itself be occupied.
//
// It fails only on invalid arguments: a non-positive grid, size < 1, or an
// occupied cell outside the grid.
func FindOptimalPosition(g Grid, occupied Occupied, size int) (int, error) {
	occupied, err := prepare(g, occupied, size)
	if err != nil {
		return 0, err
	}

	best := FallbackCell
	bestScore := math.Inf(-1)
	for pos := 0; pos < g.Cells(); pos++ {
		if occupied.Has(pos) || !g.Fits(pos, size) {
			continue
		}
		if s := Score(g, pos, occupied, size); s > bestScore+scoreTolerance {
			bestScore = s
			best = pos
		}
	}
	return best, nil
}

// Rank returns every eligible cell ordered by descending score, then
// ascending index. The first candidate, if any, is the cell
// [FindOptimalPosition] picks.
func Rank(g Grid, occupied Occupied, size int) ([]Candidate, error) {
	occupied, err := prepare(g, occupied, size)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for pos := 0; pos < g.Cells(); pos++ {
		if occupied.Has(pos) || !g.Fits(pos, size) {
			continue
		}
		row, col := g.Coord(pos)
		out = append(out, Candidate{
			Cell:  pos,
			Row:   row,
			Col:   col,
			Score: Breakdown(g, pos, occupied, size),
		})
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if c := compareScores(b.Score.Total, a.Score.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Cell, b.Cell)
	})
	return out, nil
}

// IsFallback reports whether cell is the fallback answer for occupied, that
// is, whether no eligible cell existed.
func IsFallback(g Grid, occupied Occupied, size, cell int) bool {
	if cell != FallbackCell {
		return false
	}
	occupied = occupied.normalize()
	return occupied.Has(cell) || !g.Fits(cell, size)
}

// FirstFree returns requested when it is a free cell of g, otherwise the
// lowest free cell, otherwise [FallbackCell]. It is the policy for windows
// that ask for an explicit cell.
func FirstFree(g Grid, occupied Occupied, requested int) int {
	occupied = occupied.normalize()
	if g.Contains(requested) && !occupied.Has(requested) {
		return requested
	}
	for pos := 0; pos < g.Cells(); pos++ {
		if !occupied.Has(pos) {
			return pos
		}
	}
	return FallbackCell
}

func prepare(g Grid, occupied Occupied, size int) (Occupied, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := validateSize(size); err != nil {
		return nil, err
	}
	if err := occupied.Validate(g); err != nil {
		return nil, err
	}
	return occupied.normalize(), nil
}
