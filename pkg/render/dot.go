package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// dotCellInches is the spacing between cell centres in the DOT layout.
const dotCellInches = 1.5

// ToDOT converts the grid to Graphviz DOT for the neato engine.
// Every cell is a node pinned at its grid position with pos="x,y!", so the
// diagram mirrors the screen layout rather than any graph structure.
func ToDOT(geom placement.Geometry, windows []registry.Window, opts Options) string {
	cells := layoutCells(geom, windows, opts)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, width=1.4, height=1.4, fontsize=14];\n")
	buf.WriteString("\n")

	for _, c := range cells {
		// Graphviz puts y up, screens put it down.
		x := float64(c.col) * dotCellInches
		y := float64(-c.row) * dotCellInches
		attrs := []string{
			fmt.Sprintf("label=%q", dotLabel(c, opts)),
			fmt.Sprintf("pos=\"%g,%g!\"", x, y),
		}
		attrs = append(attrs, dotStyle(c, opts)...)
		fmt.Fprintf(&buf, "  \"c%d\" [%s];\n", c.idx, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(c cellInfo, opts Options) string {
	label := strconv.Itoa(c.idx)
	switch {
	case len(c.windows) > 0:
		label += "\n" + strings.Join(c.windows, "\n")
	case opts.Scores && c.eligible:
		label += fmt.Sprintf("\n%+.2f", c.score)
	}
	return label
}

func dotStyle(c cellInfo, opts Options) []string {
	switch {
	case len(c.windows) > 0:
		return []string{"fillcolor=\"#4c78a8\"", "fontcolor=white"}
	case opts.Scores && c.best:
		return []string{"fillcolor=\"#c7e9c0\"", "penwidth=2"}
	case opts.Scores && !c.eligible:
		return []string{"style=\"rounded,filled,dashed\"", "fillcolor=lightgrey"}
	}
	return nil
}

// RenderSVG renders DOT produced by [ToDOT] to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's <svg> tag with one whose viewBox
// starts at the origin, so the output scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
