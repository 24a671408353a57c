// Package placement chooses grid cells for new windows.
//
// A [Grid] is a fixed number of columns and rows addressed by a single
// row-major index: row = idx / Columns, col = idx % Columns. Given the set of
// cells already in use ([Occupied]) and the footprint of the new window,
// [FindOptimalPosition] scores every free cell where the window fits and
// returns the best one.
//
// # Scoring
//
// [Score] adds three terms:
//
//   - Interior: +1 when the row is not the first or last row, +1 when the
//     column is not the first or last column.
//   - Proximity: every occupied cell closer than 2 (Euclidean, in cells)
//     subtracts 2 - distance.
//   - Clustering: exactly one orthogonally adjacent occupied cell adds 0.5;
//     more than two subtract 1.
//
// The highest score wins; ties go to the lowest index. When no cell is
// eligible the result is [FallbackCell] (0), even if cell 0 is occupied.
// Callers must not assume the returned cell is free; use [IsFallback].
//
// # Geometry
//
// [Geometry] binds a grid to a pixel viewport and converts between pixel
// positions and cells. It never scores.
//
// All functions are pure and safe for concurrent use. Inputs are never
// modified.
package placement
