package tickets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	sessiondto "fieldmap/internal/modules/session/dto"
	"fieldmap/internal/ui/theme"
)

// SelectMsg asks the app to make the ticket under the cursor the active one.
type SelectMsg struct {
	ID string
}

type ticketItem struct {
	t      sessiondto.Ticket
	active bool
}

func (i ticketItem) Title() string {
	mark := " "
	if i.active {
		mark = "▸"
	}
	return mark + " " + i.t.ID
}

func (i ticketItem) Description() string {
	return theme.Status(i.t.Status).Render(i.t.Status) + "  " + i.t.Notes
}

func (i ticketItem) FilterValue() string { return i.t.ID + " " + i.t.Notes }

type Model struct {
	list     list.Model
	detail   viewport.Model
	renderer *glamour.TermRenderer
	view     sessiondto.View
	width    int
	height   int
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Tickets"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(0, 1)

	r, _ := glamour.NewTermRenderer(glamour.WithStylePath("dark"), glamour.WithWordWrap(0))
	return Model{list: l, detail: vp, renderer: r}
}

// SetView replaces the list with the tickets of v, keeping the cursor on the
// same ticket when it still exists.
func (m *Model) SetView(v sessiondto.View) tea.Cmd {
	m.view = v
	cursor := m.cursorID()
	items := make([]list.Item, len(v.Tickets))
	index := 0
	for i, t := range v.Tickets {
		items[i] = ticketItem{t: t, active: t.ID == v.Selected}
		if t.ID == cursor || (cursor == "" && t.ID == v.Selected) {
			index = i
		}
	}
	cmd := m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(index)
	}
	m.detail.SetContent(m.renderDetail())
	return cmd
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.detail.SetContent(m.renderDetail())
	case tea.KeyMsg:
		if msg.String() == "enter" && !m.Filtering() {
			if id := m.cursorID(); id != "" {
				return m, func() tea.Msg { return SelectMsg{ID: id} }
			}
		}
	}

	prev := m.list.Index()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.list.Index() != prev {
		m.detail.SetContent(m.renderDetail())
	}
	m.detail, cmd = m.detail.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.view.Loaded {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No tickets loaded. Press : and run import <path>."))
	}
	listW := m.width * 45 / 100
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := theme.Pane.Width(m.width - listW - 2).Height(m.height - 2).Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// CursorID is the ticket under the list cursor, which may differ from the
// active ticket.
func (m Model) CursorID() string { return m.cursorID() }

func (m Model) cursorID() string {
	if item, ok := m.list.SelectedItem().(ticketItem); ok {
		return item.t.ID
	}
	return ""
}

func (m *Model) resize() {
	listW := m.width * 45 / 100
	m.list.SetSize(listW, m.height)
	m.detail.Width = m.width - listW - 4
	m.detail.Height = m.height - 2
	if r, err := glamour.NewTermRenderer(glamour.WithStylePath("dark"), glamour.WithWordWrap(m.detail.Width-2)); err == nil {
		m.renderer = r
	}
}

func (m Model) renderDetail() string {
	id := m.cursorID()
	var t sessiondto.Ticket
	for _, candidate := range m.view.Tickets {
		if candidate.ID == id {
			t = candidate
			break
		}
	}
	if t.ID == "" {
		return theme.Muted.Render("Select a ticket to see details")
	}
	md := Markdown(t, m.view)
	if m.renderer != nil {
		if out, err := m.renderer.Render(md); err == nil {
			return out
		}
	}
	return md
}

// Markdown describes one ticket for the detail pane. The navigation link and
// photo count are only known for the active ticket.
func Markdown(t sessiondto.Ticket, v sessiondto.View) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", t.ID)
	fmt.Fprintf(&sb, "**Status:** %s\n\n", t.Status)
	fmt.Fprintf(&sb, "**Location:** %.6f, %.6f\n\n", t.Lat, t.Lon)
	fmt.Fprintf(&sb, "## Notes\n\n%s\n\n", t.Notes)
	if v.Active != nil && v.Active.Ticket.ID == t.ID {
		fmt.Fprintf(&sb, "## Navigate\n\n%s\n\n", v.Active.Navigation)
		fmt.Fprintf(&sb, "**Photos:** %d\n\n", v.Active.Photos)
		sb.WriteString("`c` complete · `b` block · `r` reopen · `:photos <path>` attach\n")
	} else {
		sb.WriteString("`enter` make active\n")
	}
	return sb.String()
}
