package placement

import "math"

// Heuristic weights.
const (
	interiorBonus   = 1.0
	proximityRadius = 2.0
	adjacencyBonus  = 0.5
	crowdingPenalty = 1.0
	crowdingLimit   = 2
)

// ScoreBreakdown holds the individual terms of a cell's score.
type ScoreBreakdown struct {
	Interior   float64 `json:"interior"`
	Proximity  float64 `json:"proximity"`
	Clustering float64 `json:"clustering"`
	Adjacent   int     `json:"adjacent"`
	Total      float64 `json:"total"`
}

// Score rates pos as a home for a new window. Higher is better.
// size does not influence the score; it is accepted so that callers can pass
// the same arguments they pass to [FindOptimalPosition].
//
// Score does not report argument errors: an invalid grid or a pos outside it
// scores 0. Duplicate occupied cells count once.
func Score(g Grid, pos int, occupied Occupied, size int) float64 {
	return Breakdown(g, pos, occupied, size).Total
}

// Breakdown computes the score of pos term by term. Total is accumulated in
// a single running sum, interior first, then one proximity term per
// occupied cell in ascending order, then clustering. Like [Score] it returns
// the zero breakdown for an invalid grid or a pos outside it.
func Breakdown(g Grid, pos int, occupied Occupied, _ int) ScoreBreakdown {
	var b ScoreBreakdown
	if g.Validate() != nil || !g.Contains(pos) {
		return b
	}
	if !occupied.isSet() {
		occupied = occupied.normalize()
	}
	row, col := g.Coord(pos)

	if row > 0 && row < g.Rows-1 {
		b.Interior += interiorBonus
	}
	if col > 0 && col < g.Columns-1 {
		b.Interior += interiorBonus
	}
	b.Total = b.Interior

	for _, o := range occupied {
		if !g.Contains(o) {
			continue
		}
		orow, ocol := g.Coord(o)
		dr, dc := row-orow, col-ocol
		dist := math.Sqrt(float64(dr*dr + dc*dc))
		if dist < proximityRadius {
			b.Proximity -= proximityRadius - dist
			b.Total -= proximityRadius - dist
		}
		if abs(dr)+abs(dc) == 1 {
			b.Adjacent++
		}
	}

	switch {
	case b.Adjacent == 1:
		b.Clustering = adjacencyBonus
	case b.Adjacent > crowdingLimit:
		b.Clustering = -crowdingPenalty
	}

	b.Total += b.Clustering
	return b
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
