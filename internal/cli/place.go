package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/panegrid/pkg/placement"
)

// placeFlags are the engine inputs shared by place and rank.
type placeFlags struct {
	occupied []int
	size     int
	columns  int
	rows     int
	asJSON   bool
}

func (f *placeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&f.occupied, "occupied", nil, "occupied cell indices, comma separated")
	cmd.Flags().IntVarP(&f.size, "size", "s", 1, "window size in cells")
	cmd.Flags().IntVar(&f.columns, "columns", 0, "grid columns (default: from config)")
	cmd.Flags().IntVar(&f.rows, "rows", 0, "grid rows (default: from config)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON")
}

// placeGrid returns the grid from the flags, falling back to the config grid.
func (c *CLI) placeGrid(f *placeFlags) (placement.Grid, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return placement.Grid{}, err
	}
	g := cfg.Grid
	if f.columns != 0 {
		g.Columns = f.columns
	}
	if f.rows != 0 {
		g.Rows = f.rows
	}
	return g, nil
}

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	var (
		flags   placeFlags
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Find the best cell for a new window",
		Long: `Find the best cell for a new window.

Scores every free cell the window fits in and prints the winner. Ties go to
the lowest index. When no cell is eligible the fallback cell 0 is printed
with a warning.`,
		Example: `  panegrid place --occupied 6,7,8
  panegrid place --occupied 0,1,2 --size 2 --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.placeGrid(&flags)
			if err != nil {
				return err
			}
			return c.runPlace(g, &flags, explain)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&explain, "explain", false, "show the score terms of the chosen cell")

	return cmd
}

type placeOutput struct {
	Cell     int                       `json:"cell"`
	Row      int                       `json:"row"`
	Col      int                       `json:"col"`
	Fallback bool                      `json:"fallback"`
	Score    *placement.ScoreBreakdown `json:"score,omitempty"`
}

func (c *CLI) runPlace(g placement.Grid, f *placeFlags, explain bool) error {
	occupied := placement.NewOccupied(f.occupied...)
	cell, err := placement.FindOptimalPosition(g, occupied, f.size)
	if err != nil {
		return err
	}

	out := placeOutput{Cell: cell, Fallback: placement.IsFallback(g, occupied, f.size, cell)}
	out.Row, out.Col = g.Coord(cell)
	if explain && !out.Fallback {
		b := placement.Breakdown(g, cell, occupied, f.size)
		out.Score = &b
	}
	if out.Fallback {
		c.Logger.Warn("no eligible cell, using fallback", "cell", cell, "occupied", len(occupied), "size", f.size)
	}

	if f.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Fallback {
		printWarning("No eligible cell on the %dx%d grid; falling back to cell %d", g.Columns, g.Rows, cell)
		return nil
	}
	printSuccess("Cell %s %s", StyleNumber.Render(fmt.Sprint(cell)), StyleDim.Render(fmt.Sprintf("(row %d, col %d)", out.Row, out.Col)))
	if out.Score != nil {
		printBreakdown(*out.Score)
	}
	return nil
}

func printBreakdown(b placement.ScoreBreakdown) {
	printKeyValue("interior", fmt.Sprintf("%+.2f", b.Interior))
	printKeyValue("proximity", fmt.Sprintf("%+.2f", b.Proximity))
	printKeyValue("clustering", fmt.Sprintf("%+.2f (%d adjacent)", b.Clustering, b.Adjacent))
	printKeyValue("total", StyleHighlight.Render(fmt.Sprintf("%+.2f", b.Total)))
}
