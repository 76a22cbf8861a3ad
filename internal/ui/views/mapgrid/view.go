package mapgrid

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "fieldmap/internal/modules/session/dto"
	"fieldmap/internal/ui/theme"
)

// ClickMsg carries the label of a clicked marker, exactly as the map widget
// would report it.
type ClickMsg struct {
	Label string
}

const headerLines = 1

type Model struct {
	view   sessiondto.View
	cells  []Cell
	focus  int
	width  int
	height int
}

func New() Model { return Model{focus: -1} }

func (m *Model) SetView(v sessiondto.View) {
	m.view = v
	m.reproject()
	if m.focus >= len(m.cells) {
		m.focus = -1
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.reproject()
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if mk, ok := Hit(m.cells, msg.X, msg.Y-headerLines); ok {
			return m, click(mk.Label)
		}
	case tea.KeyMsg:
		if len(m.cells) == 0 {
			return m, nil
		}
		switch msg.String() {
		case "n", "right":
			m.focus = (m.focus + 1) % len(m.cells)
		case "p", "left":
			m.focus = (m.focus - 1 + len(m.cells)) % len(m.cells)
		case "enter", " ":
			if m.focus >= 0 {
				return m, click(m.cells[m.focus].Marker.Label)
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	if !m.view.Loaded {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No tickets to map."))
	}
	vp := m.view.Viewport
	header := theme.Title.Render("Map") + theme.Muted.Render(fmt.Sprintf("  center %.5f, %.5f  zoom %d  click a marker or n/p + enter", vp.CenterLat, vp.CenterLon, vp.Zoom))

	gw, gh := m.gridSize()
	rows := make([][]string, gh)
	for y := range rows {
		rows[y] = make([]string, gw)
		for x := range rows[y] {
			rows[y][x] = theme.Muted.Render("·")
		}
	}
	for i, c := range m.cells {
		glyph := "●"
		if c.Marker.Style == "active" {
			glyph = "◉"
		}
		style := theme.Marker(c.Marker.Style)
		if i == m.focus {
			style = style.Reverse(true)
		}
		rows[c.Y][c.X] = style.Render(glyph)
	}

	var sb strings.Builder
	sb.WriteString(header)
	for _, row := range rows {
		sb.WriteString("\n" + strings.Join(row, ""))
	}
	if m.focus >= 0 && m.focus < len(m.cells) {
		sb.WriteString("\n" + theme.Hot.Render(m.cells[m.focus].Marker.Label))
	}
	return sb.String()
}

func (m Model) gridSize() (int, int) {
	// One line for the header and one for the focus label.
	return max(m.width, 1), max(m.height-headerLines-1, 1)
}

func (m *Model) reproject() {
	w, h := m.gridSize()
	m.cells = Project(m.view.Markers, m.view.Viewport, w, h)
}

func click(label string) tea.Cmd {
	return func() tea.Msg { return ClickMsg{Label: label} }
}
