package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// windowCommand creates the window command and its subcommands.
func (c *CLI) windowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "window",
		Aliases: []string{"win", "w"},
		Short:   "Manage the windows of a layout",
		Long: `Manage the windows of a layout.

Every subcommand loads the layout selected with --layout from the store,
applies the change and saves it back.`,
	}

	cmd.AddCommand(c.windowRegisterCommand())
	cmd.AddCommand(c.windowUpdateCommand())
	cmd.AddCommand(c.windowRemoveCommand())
	cmd.AddCommand(c.windowListCommand())
	cmd.AddCommand(c.windowOccupiedCommand())
	cmd.AddCommand(c.windowResizeCommand())

	return cmd
}

func (c *CLI) windowRegisterCommand() *cobra.Command {
	var (
		cell int
		auto bool
		size int
		w, h float64
	)

	cmd := &cobra.Command{
		Use:   "register [id]",
		Short: "Register a window at a cell or at the best free cell",
		Long: `Register a window.

With --cell the window goes to that cell, or to the lowest free cell when it
is taken. With --auto the placement engine picks the cell. Registering an
existing id leaves it unchanged. Without an id a UUID is generated.`,
		Example: `  panegrid window register editor --auto
  panegrid window register terminal --cell 7 --w 400 --h 300`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auto && !cmd.Flags().Changed("cell") {
				return perrors.New(perrors.ErrCodeInvalidArgument, "either --cell or --auto is required")
			}
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			req := registry.At(cell)
			if auto {
				req = registry.AutoPlace(size)
			}
			return c.runRegister(cmd.Context(), id, req, registry.Size{W: w, H: h})
		},
	}

	cmd.Flags().IntVar(&cell, "cell", 0, "requested cell index")
	cmd.Flags().BoolVar(&auto, "auto", false, "let the placement engine choose the cell")
	cmd.Flags().IntVarP(&size, "size", "s", 1, "window size in cells for --auto")
	cmd.Flags().Float64Var(&w, "w", 0, "width in pixels (default 200)")
	cmd.Flags().Float64Var(&h, "h", 0, "height in pixels (default 200)")
	cmd.MarkFlagsMutuallyExclusive("cell", "auto")

	return cmd
}

func (c *CLI) runRegister(ctx context.Context, id string, req registry.Request, size registry.Size) error {
	return c.withRegistry(ctx, true, func(s *session) error {
		before := s.reg.OccupiedCells()
		_, existed := s.reg.Get(id)

		win, err := s.reg.Register(ctx, id, req, size)
		if err != nil {
			return err
		}
		cell := s.reg.CellOf(win)
		if req.Auto && !existed && placement.IsFallback(s.reg.Geometry().Grid, before, max(req.Footprint, 1), cell) {
			c.Logger.Warn("no eligible cell, window placed at fallback", "id", win.ID, "cell", cell)
		}
		printSuccess("Registered %s in cell %d", StyleHighlight.Render(win.ID), cell)
		printWindowDetail(win)
		return nil
	})
}

func (c *CLI) windowUpdateCommand() *cobra.Command {
	var x, y, w, h float64

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a window's position or size",
		Long: `Update a window's position or size. Only the flags given are changed.`,
		Example: `  panegrid window update editor --x 420 --y 210
  panegrid window update editor --w 640 --h 480`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch registry.Patch
			f := cmd.Flags()
			if f.Changed("x") || f.Changed("y") {
				if !f.Changed("x") || !f.Changed("y") {
					return perrors.New(perrors.ErrCodeInvalidArgument, "--x and --y must be given together")
				}
				patch.Pos = &placement.Point{X: x, Y: y}
			}
			if f.Changed("w") || f.Changed("h") {
				if !f.Changed("w") || !f.Changed("h") {
					return perrors.New(perrors.ErrCodeInvalidArgument, "--w and --h must be given together")
				}
				patch.Size = &registry.Size{W: w, H: h}
			}
			if patch.Pos == nil && patch.Size == nil {
				return perrors.New(perrors.ErrCodeInvalidArgument, "nothing to update")
			}
			return c.runUpdate(cmd.Context(), args[0], patch)
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "left edge in pixels")
	cmd.Flags().Float64Var(&y, "y", 0, "top edge in pixels")
	cmd.Flags().Float64Var(&w, "w", 0, "width in pixels")
	cmd.Flags().Float64Var(&h, "h", 0, "height in pixels")

	return cmd
}

func (c *CLI) runUpdate(ctx context.Context, id string, patch registry.Patch) error {
	return c.withRegistry(ctx, true, func(s *session) error {
		win, err := s.reg.Update(id, patch)
		if err != nil {
			return err
		}
		printSuccess("Updated %s, now in cell %d", StyleHighlight.Render(win.ID), s.reg.CellOf(win))
		printWindowDetail(win)
		return nil
	})
}

func (c *CLI) windowRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a window",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRegistry(cmd.Context(), true, func(s *session) error {
				if err := s.reg.Remove(args[0]); err != nil {
					return err
				}
				printSuccess("Removed %s", StyleHighlight.Render(args[0]))
				return nil
			})
		},
	}
}

func (c *CLI) windowListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the windows of the layout",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRegistry(cmd.Context(), false, func(s *session) error {
				windows := s.reg.List()
				if len(windows) == 0 {
					printInfo("Layout %s is empty", StyleHighlight.Render(s.layout))
					return nil
				}
				fmt.Fprintln(stdout, windowTable(s.reg, windows))
				return nil
			})
		},
	}
}

func (c *CLI) windowOccupiedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "occupied",
		Short: "Print the occupied cells of the layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRegistry(cmd.Context(), false, func(s *session) error {
				fmt.Fprintln(stdout, formatCells(s.reg.OccupiedCells()))
				return nil
			})
		},
	}
}

func (c *CLI) windowResizeCommand() *cobra.Command {
	var width, height float64

	cmd := &cobra.Command{
		Use:   "resize",
		Short: "Remap window positions to a new viewport",
		Long: `Remap window positions to a new viewport.

Each window keeps its cell; its position becomes that cell's origin in the
new viewport. Sizes are unchanged. Update [viewport] in the config file to
keep working with the new dimensions.`,
		Example: `  panegrid window resize --width 1920 --height 1080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRegistry(cmd.Context(), true, func(s *session) error {
				if err := s.reg.Resize(width, height); err != nil {
					return err
				}
				printSuccess("Remapped %d windows to %gx%g", s.reg.Len(), width, height)
				if s.cfg.Viewport.Width != width || s.cfg.Viewport.Height != height {
					printNextStep("Set the new viewport in", "panegrid config path")
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&width, "width", 0, "new viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "new viewport height in pixels")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}

func printWindowDetail(w registry.Window) {
	printDetail("pos %g,%g  size %gx%g", w.Pos.X, w.Pos.Y, w.Size.W, w.Size.H)
}

func formatCells(cells placement.Occupied) string {
	if len(cells) == 0 {
		return StyleDim.Render("none")
	}
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func windowTable(reg *registry.Registry, windows []registry.Window) string {
	rows := make([][]string, len(windows))
	for i, w := range windows {
		rows[i] = []string{
			w.ID,
			fmt.Sprint(reg.CellOf(w)),
			fmt.Sprintf("%g,%g", w.Pos.X, w.Pos.Y),
			fmt.Sprintf("%gx%g", w.Size.W, w.Size.H),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Cell", "Position", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		}).
		Render()
}
