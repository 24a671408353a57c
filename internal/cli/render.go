package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/panegrid/pkg/render"
)

type renderOpts struct {
	format    string
	output    string
	scores    bool
	footprint int
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: string(render.FormatText)}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the layout's grid",
		Long: `Draw the layout's grid.

Formats:
  text  plain character grid (default)
  dot   Graphviz source, one pinned node per cell
  svg   rendered with Graphviz
  png   svg converted with rsvg-convert
  pdf   svg converted with rsvg-convert

Text and DOT go to stdout unless -o is given. Other formats default to
<layout>.<format>. With --scores, free cells show the score a new window
would get there and the best cell is highlighted.`,
		Example: `  panegrid render --scores
  panegrid render -f svg -o grid.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, dot, svg, png, pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.scores, "scores", false, "annotate free cells with placement scores")
	cmd.Flags().IntVarP(&opts.footprint, "size", "s", 1, "window size in cells for --scores")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	return c.withRegistry(ctx, false, func(s *session) error {
		prog := newProgress(logger)
		data, err := render.Render(s.reg.Geometry(), s.reg.List(), render.Options{
			Scores:    opts.scores,
			Footprint: opts.footprint,
		}, format)
		if err != nil {
			return err
		}

		path := outputPath(opts.output, s.layout, format)
		out, err := openOutput(path)
		if err != nil {
			return err
		}
		defer out.Close()

		if _, err := out.Write(data); err != nil {
			return err
		}
		if path != "" {
			prog.done("Rendered " + string(format))
			printFile(path)
		}
		return nil
	})
}

// outputPath returns where format should be written: the explicit output,
// stdout ("") for textual formats, or <layout>.<format>.
func outputPath(output, layout string, format render.Format) string {
	if output != "" {
		return output
	}
	if format == render.FormatText || format == render.FormatDOT {
		return ""
	}
	return filepath.Clean(strings.ReplaceAll(layout, " ", "_") + "." + string(format))
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}
