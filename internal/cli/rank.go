package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panegrid/pkg/placement"
)

// rankCommand creates the rank command.
func (c *CLI) rankCommand() *cobra.Command {
	var (
		flags placeFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "List every eligible cell with its score",
		Long: `List every eligible cell with its score terms, best first.

The first row is the cell 'place' would choose.`,
		Example: `  panegrid rank --occupied 6,7,8 --limit 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.placeGrid(&flags)
			if err != nil {
				return err
			}
			return runRank(g, &flags, limit)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n cells (0: all)")

	return cmd
}

func runRank(g placement.Grid, f *placeFlags, limit int) error {
	ranked, err := placement.Rank(g, placement.NewOccupied(f.occupied...), f.size)
	if err != nil {
		return err
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if f.asJSON {
		if ranked == nil {
			ranked = []placement.Candidate{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	if len(ranked) == 0 {
		printWarning("No eligible cell on the %dx%d grid", g.Columns, g.Rows)
		return nil
	}
	fmt.Fprintln(stdout, rankTable(ranked))
	return nil
}

func rankTable(ranked []placement.Candidate) string {
	rows := make([][]string, len(ranked))
	for i, c := range ranked {
		rows[i] = []string{
			fmt.Sprint(c.Cell),
			fmt.Sprint(c.Row),
			fmt.Sprint(c.Col),
			fmt.Sprintf("%+.2f", c.Score.Interior),
			fmt.Sprintf("%+.2f", c.Score.Proximity),
			fmt.Sprintf("%+.2f", c.Score.Clustering),
			fmt.Sprintf("%+.2f", c.Score.Total),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Cell", "Row", "Col", "Interior", "Proximity", "Cluster", "Total").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case row == 0:
				return base.Foreground(colorGreen).Bold(true)
			case col == 6:
				return base.Foreground(colorCyan)
			}
			return base.Foreground(colorWhite)
		}).
		Render()
}
