// Package render draws a layout's grid.
//
// # Overview
//
// Three outputs are supported:
//
//   - [Text]: a plain character grid for terminals and tests
//   - [ToDOT]: Graphviz DOT source with one pinned node per cell
//   - [RenderSVG]: the DOT source rendered with Graphviz
//
// SVG output can be converted further with [ToPDF] and [ToPNG], which shell
// out to rsvg-convert from librsvg.
//
// # Usage
//
//	fmt.Print(render.Text(geom, reg.List(), render.Options{Scores: true}))
//
//	dot := render.ToDOT(geom, reg.List(), render.Options{})
//	svg, err := render.RenderSVG(dot)
//
// # Scores
//
// With [Options.Scores] set, free cells are annotated with the placement
// score a new window of [Options.Footprint] cells would get there, and the
// cell [placement.FindOptimalPosition] would choose is highlighted. Cells
// the window does not fit in are marked as ineligible.
package render
