package render

import (
	"bytes"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if !slices.Contains(Formats, f) {
		return "", perrors.New(perrors.ErrCodeInvalidArgument, "unknown format %q", s)
	}
	return f, nil
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "text/plain; charset=utf-8"
}

// Render draws the grid in format f.
func Render(geom placement.Geometry, windows []registry.Window, opts Options, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(Text(geom, windows, opts)), nil
	case FormatDOT:
		return []byte(ToDOT(geom, windows, opts)), nil
	}

	svg, err := RenderSVG(ToDOT(geom, windows, opts))
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatPNG:
		return ToPNG(svg, 2.0)
	case FormatPDF:
		return ToPDF(svg)
	}
	return svg, nil
}

// ToPDF converts SVG to PDF with rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(svg []byte) ([]byte, error) {
	return rsvgConvert(svg, FormatPDF)
}

// ToPNG converts SVG to PNG with rsvg-convert; scale 2.0 doubles the resolution.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(svg, FormatPNG, "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(svg []byte, f Format, extra ...string) ([]byte, error) {
	bin, err := exec.LookPath("rsvg-convert")
	if err != nil {
		return nil, fmt.Errorf("%s output requires librsvg (brew install librsvg, apt install librsvg2-bin)", f)
	}

	cmd := exec.Command(bin, append([]string{"-f", string(f)}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}
