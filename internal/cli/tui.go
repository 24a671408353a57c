package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

const tuiCellWidth = 10

var (
	tuiCellStyle = lipgloss.NewStyle().
			Width(tuiCellWidth).
			Height(3).
			Align(lipgloss.Center, lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)
	tuiCursorBorder = colorYellow
	tuiWindowFg     = colorBlue
	tuiBestFg       = colorGreen
	tuiHelpStyle    = lipgloss.NewStyle().Foreground(colorDim)
	tuiErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

// tuiCommand creates the tui command.
func (c *CLI) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit a layout interactively",
		Long: `Browse and edit a layout interactively.

Keys:
  arrows, hjkl  move the cursor
  enter         register a window at the cursor
  a             auto-place a window of the current size
  + / -         change the auto-place size
  d             remove the windows under the cursor
  s             toggle placement scores
  q             save and quit
  esc, ctrl+c   quit without saving`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context())
		},
	}
}

func (c *CLI) runTUI(ctx context.Context) error {
	sess, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	final, err := tea.NewProgram(newGridModel(ctx, sess.layout, sess.reg), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	m := final.(gridModel)
	if !m.save || !m.dirty {
		return nil
	}
	if err := sess.save(ctx); err != nil {
		return err
	}
	printSuccess("Saved layout %s (%d windows)", StyleHighlight.Render(sess.layout), sess.reg.Len())
	return nil
}

// gridModel is the bubbletea model for the grid browser.
type gridModel struct {
	ctx       context.Context
	layout    string
	reg       *registry.Registry
	cursor    int
	footprint int
	scores    bool
	status    string
	err       error
	dirty     bool
	save      bool
}

func newGridModel(ctx context.Context, layout string, reg *registry.Registry) gridModel {
	return gridModel{ctx: ctx, layout: layout, reg: reg, footprint: 1}
}

func (m gridModel) Init() tea.Cmd {
	return nil
}

func (m gridModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	g := m.reg.Geometry().Grid
	row, col := g.Coord(m.cursor)
	m.err = nil

	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "q":
		m.save = true
		return m, tea.Quit
	case "up", "k":
		row = max(row-1, 0)
	case "down", "j":
		row = min(row+1, g.Rows-1)
	case "left", "h":
		col = max(col-1, 0)
	case "right", "l":
		col = min(col+1, g.Columns-1)
	case "+", "=":
		m.footprint = min(m.footprint+1, min(g.Columns, g.Rows))
		m.status = fmt.Sprintf("size %d", m.footprint)
	case "-":
		m.footprint = max(m.footprint-1, 1)
		m.status = fmt.Sprintf("size %d", m.footprint)
	case "s":
		m.scores = !m.scores
	case "enter":
		m.register(registry.At(m.cursor))
		return m, nil
	case "a":
		m.register(registry.AutoPlace(m.footprint))
		return m, nil
	case "d", "x":
		m.removeAtCursor()
		return m, nil
	}

	m.cursor = g.Index(row, col)
	return m, nil
}

// nextID returns the first unused id of the form wN.
func (m *gridModel) nextID() string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("w%d", n)
		if _, taken := m.reg.Get(id); !taken {
			return id
		}
	}
}

func (m *gridModel) register(req registry.Request) {
	before := m.reg.OccupiedCells()
	win, err := m.reg.Register(m.ctx, m.nextID(), req, registry.Size{})
	if err != nil {
		m.err = err
		return
	}
	cell := m.reg.CellOf(win)
	m.cursor = cell
	m.dirty = true
	m.status = fmt.Sprintf("registered %s in cell %d", win.ID, cell)
	if req.Auto && placement.IsFallback(m.reg.Geometry().Grid, before, m.footprint, cell) {
		m.status += " (fallback: no eligible cell)"
	}
}

func (m *gridModel) removeAtCursor() {
	var removed []string
	for _, w := range m.windowsAt(m.cursor) {
		if err := m.reg.Remove(w); err != nil {
			m.err = err
			return
		}
		removed = append(removed, w)
	}
	if len(removed) == 0 {
		m.status = fmt.Sprintf("cell %d is empty", m.cursor)
		return
	}
	m.dirty = true
	m.status = "removed " + strings.Join(removed, ", ")
}

// windowsAt returns the ids of the windows in cell, sorted.
func (m gridModel) windowsAt(cell int) []string {
	var ids []string
	for _, w := range m.reg.List() {
		if m.reg.CellOf(w) == cell {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

func (m gridModel) View() string {
	var b strings.Builder
	g := m.reg.Geometry().Grid

	b.WriteString(StyleTitle.Render("Layout " + m.layout))
	b.WriteString(tuiHelpStyle.Render(fmt.Sprintf("  %d windows  size %d", m.reg.Len(), m.footprint)))
	b.WriteString("\n\n")

	scores := map[int]float64{}
	best := -1
	if m.scores {
		if ranked, err := placement.Rank(g, m.reg.OccupiedCells(), m.footprint); err == nil {
			for i, c := range ranked {
				scores[c.Cell] = c.Score.Total
				if i == 0 {
					best = c.Cell
				}
			}
		}
	}

	for row := 0; row < g.Rows; row++ {
		cells := make([]string, g.Columns)
		for col := 0; col < g.Columns; col++ {
			idx := g.Index(row, col)
			cells[col] = m.renderCell(idx, scores, best)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(tuiErrorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(StyleDim.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(tuiHelpStyle.Render("←↑↓→ move  ⏎ place  a auto  +/- size  d remove  s scores  q save+quit  esc quit"))
	return b.String()
}

func (m gridModel) renderCell(idx int, scores map[int]float64, best int) string {
	style := tuiCellStyle
	if idx == m.cursor {
		style = style.BorderForeground(tuiCursorBorder)
	}

	label := StyleDim.Render(fmt.Sprint(idx))
	if ids := m.windowsAt(idx); len(ids) > 0 {
		style = style.Foreground(tuiWindowFg).Bold(true)
		label = truncateLabel(strings.Join(ids, ","), tuiCellWidth-2)
	} else if s, ok := scores[idx]; ok {
		label = fmt.Sprintf("%d\n%+.2f", idx, s)
		if idx == best {
			style = style.Foreground(tuiBestFg).Bold(true)
		}
	}
	return style.Render(label)
}

func truncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
