package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

func testGeometry(t *testing.T) placement.Geometry {
	t.Helper()
	geom, err := placement.NewGeometry(placement.DefaultGrid(), 1000, 800)
	require.NoError(t, err)
	return geom
}

// windowsAt returns one window per cell, named w<cell>.
func windowsAt(geom placement.Geometry, cells ...int) []registry.Window {
	out := make([]registry.Window, len(cells))
	for i, c := range cells {
		out[i] = registry.Window{
			ID:    "w" + string(rune('0'+c%10)),
			State: registry.State{Pos: geom.Origin(c), Size: registry.DefaultWindowSize},
		}
	}
	return out
}

func TestText(t *testing.T) {
	geom := testGeometry(t)
	got := Text(geom, windowsAt(geom, 0, 7), Options{})

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "[w0      ] [        ] [        ] [        ] [        ]", lines[0])
	assert.Equal(t, "[        ] [        ] [w7      ] [        ] [        ]", lines[1])
	assert.Equal(t, "5x4 grid, 2 windows, cell 200x200 px", lines[4])
}

func TestText_Scores(t *testing.T) {
	geom := testGeometry(t)
	got := Text(geom, windowsAt(geom, 6, 7, 8), Options{Scores: true})

	lines := strings.Split(got, "\n")
	// Cell 16 (row 3, col 1) is the best choice with score 1.
	assert.Contains(t, lines[3], "[*+1.00  ]")
	assert.Equal(t, 1, strings.Count(got, "*"))
}

func TestText_ScoresFootprint(t *testing.T) {
	geom := testGeometry(t)
	got := Text(geom, nil, Options{Scores: true, Footprint: 2})

	lines := strings.Split(got, "\n")
	// The last column and row cannot hold a 2x2 window.
	assert.True(t, strings.HasSuffix(lines[0], "[-       ]"))
	assert.Equal(t, 5, strings.Count(lines[3], "[-       ]"))
}

func TestText_SharedCell(t *testing.T) {
	geom := testGeometry(t)
	windows := []registry.Window{
		{ID: "b", State: registry.State{Pos: placement.Point{X: 10, Y: 10}}},
		{ID: "a", State: registry.State{Pos: placement.Point{X: 50, Y: 50}}},
	}
	got := Text(geom, windows, Options{})
	assert.True(t, strings.HasPrefix(got, "[a,b     ]"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 8))
	assert.Equal(t, "a-very-~", truncate("a-very-long-id", 8))
}

func TestToDOT(t *testing.T) {
	geom := testGeometry(t)
	dot := ToDOT(geom, windowsAt(geom, 7), Options{Scores: true})

	assert.True(t, strings.HasPrefix(dot, "graph G {"))
	assert.Contains(t, dot, "layout=neato;")
	assert.Equal(t, 20, strings.Count(dot, "pos="))
	assert.Contains(t, dot, `"c0" [label="0\n+0.00", pos="0,0!"`)
	assert.Contains(t, dot, `"c7" [label="7\nw7", pos="3,-1.5!", fillcolor="#4c78a8"`)
	assert.Equal(t, 1, strings.Count(dot, "#c7e9c0"))
}

func TestToDOT_NoScores(t *testing.T) {
	geom := testGeometry(t)
	dot := ToDOT(geom, nil, Options{})
	assert.NotContains(t, dot, "#c7e9c0")
	assert.Contains(t, dot, `"c19" [label="19", pos="6,-4.5!"];`)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"SVG", FormatSVG, false},
		{"dot", FormatDOT, false},
		{"jpeg", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Contains(t, out, `viewBox="0 0 100.00 50.00" width="100" height="50"`)
	assert.Contains(t, out, "<g/>")

	plain := []byte("<svg><g/></svg>")
	assert.Equal(t, plain, normalizeViewBox(plain))
}

func TestRender_TextAndDOT(t *testing.T) {
	geom := testGeometry(t)
	out, err := Render(geom, nil, Options{}, FormatText)
	require.NoError(t, err)
	assert.Equal(t, Text(geom, nil, Options{}), string(out))

	out, err = Render(geom, nil, Options{}, FormatDOT)
	require.NoError(t, err)
	assert.Equal(t, ToDOT(geom, nil, Options{}), string(out))
}

func TestRenderSVG(t *testing.T) {
	geom := testGeometry(t)
	svg, err := RenderSVG(ToDOT(geom, windowsAt(geom, 7), Options{Scores: true}))
	require.NoError(t, err)

	out := string(svg)
	assert.Contains(t, out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)
	assert.Contains(t, out, "</svg>")
	assert.Equal(t, 20, strings.Count(out, `class="node"`))
	assert.Contains(t, out, "<title>c0</title>")
	assert.Contains(t, out, "<title>c19</title>")
	assert.Contains(t, out, ">w7</text>")
	assert.Contains(t, out, `fill="#4c78a8"`)
	assert.Contains(t, out, `fill="#c7e9c0"`)
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	_, err := RenderSVG("graph G { this is not dot")
	assert.Error(t, err)
}

func TestRender_SVG(t *testing.T) {
	geom := testGeometry(t)
	out, err := Render(geom, windowsAt(geom, 3, 12), Options{}, FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
	assert.Contains(t, string(out), ">w3</text>")
	assert.Contains(t, string(out), ">w2</text>")
	assert.Equal(t, 20, strings.Count(string(out), `class="node"`))
}
