package placement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	g := DefaultGrid()

	tests := []struct {
		name     string
		pos      int
		occupied Occupied
		want     float64
	}{
		{"corner", 0, nil, 0},
		{"top edge", 2, nil, 1},
		{"left edge interior row", 5, nil, 1},
		{"interior", 12, nil, 2},
		{"diagonal neighbour", 6, NewOccupied(12), math.Sqrt2},
		{"single orthogonal neighbour", 7, NewOccupied(12), 1.5},
		{"self occupied", 0, NewOccupied(0), -2},
		{"distance two is ignored", 16, NewOccupied(6, 7, 8), 1},
		{"crowded", 12, NewOccupied(7, 11, 13, 17), -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(g, tt.pos, tt.occupied, 1), 1e-9)
		})
	}
}

func TestBreakdown_AdjacencyBonus(t *testing.T) {
	g := DefaultGrid()

	alone := Breakdown(g, 12, nil, 1)
	neighbour := Breakdown(g, 12, NewOccupied(7), 1)

	assert.Equal(t, 0, alone.Adjacent)
	assert.Equal(t, 1, neighbour.Adjacent)
	assert.Equal(t, 0.5, neighbour.Clustering-alone.Clustering)
	assert.Equal(t, alone.Interior, neighbour.Interior)
	assert.InDelta(t, -1.0, neighbour.Proximity, 1e-9)
}

func TestBreakdown_Clustering(t *testing.T) {
	g := DefaultGrid()

	tests := []struct {
		name     string
		occupied Occupied
		adjacent int
		want     float64
	}{
		{"none", nil, 0, 0},
		{"one", NewOccupied(11), 1, 0.5},
		{"two", NewOccupied(11, 13), 2, 0},
		{"three", NewOccupied(7, 11, 13), 3, -1},
		{"four", NewOccupied(7, 11, 13, 17), 4, -1},
		{"diagonals only", NewOccupied(6, 8, 16, 18), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Breakdown(g, 12, tt.occupied, 1)
			assert.Equal(t, tt.adjacent, b.Adjacent)
			assert.Equal(t, tt.want, b.Clustering)
			assert.InDelta(t, b.Interior+b.Proximity+b.Clustering, b.Total, 1e-12)
		})
	}
}

func TestScore_SizeDoesNotChangeScore(t *testing.T) {
	g := DefaultGrid()
	occupied := NewOccupied(3, 9)
	assert.Equal(t, Score(g, 7, occupied, 1), Score(g, 7, occupied, 2))
}

func TestScore_UnvalidatedArguments(t *testing.T) {
	g := DefaultGrid()

	assert.NotPanics(t, func() {
		assert.Zero(t, Score(Grid{}, 0, nil, 1))
		assert.Zero(t, Score(Grid{Columns: 5, Rows: -1}, 3, nil, 1))
	})
	assert.Equal(t, ScoreBreakdown{}, Breakdown(g, 20, nil, 1))
	assert.Equal(t, ScoreBreakdown{}, Breakdown(g, -1, nil, 1))

	assert.Equal(t, Score(g, 7, NewOccupied(12), 1), Score(g, 7, Occupied{12, 12, 12}, 1),
		"duplicates count once")
	assert.Equal(t, Score(g, 7, NewOccupied(6, 12), 1), Score(g, 7, Occupied{12, 6}, 1),
		"order does not matter")
	assert.Equal(t, Score(g, 7, NewOccupied(12), 1), Score(g, 7, Occupied{12, 99}, 1),
		"cells outside the grid are ignored")
}
