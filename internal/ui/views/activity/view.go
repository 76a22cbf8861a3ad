package activity

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ticketdto "fieldmap/internal/modules/ticket/dto"
	"fieldmap/internal/ui/theme"
)

type Port interface {
	Activity(ctx context.Context, limit int) ([]ticketdto.ActivityOutput, error)
}

type LoadedMsg struct {
	Entries []ticketdto.ActivityOutput
	Err     error
}

type entryItem struct{ a ticketdto.ActivityOutput }

func (i entryItem) Title() string {
	if i.a.TicketID != "" {
		return fmt.Sprintf("%s %s: %s → %s", i.a.Kind, i.a.TicketID, i.a.From, i.a.To)
	}
	return i.a.Kind
}

func (i entryItem) Description() string {
	desc := i.a.At.Local().Format("Jan 2 15:04:05")
	if i.a.Detail != "" {
		desc += "  " + i.a.Detail
	}
	return desc
}

func (i entryItem) FilterValue() string { return i.a.TicketID + " " + i.a.Detail }

type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Peach).BorderForeground(theme.Peach)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Peach)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Activity"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, list: l, spinner: sp}
}

// Refresh reloads the newest entries.
func (m *Model) Refresh() tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.loading = true
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		entries, err := port.Activity(context.Background(), 200)
		return LoadedMsg{Entries: entries, Err: err}
	})
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height)
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Activity: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Activity"
		items := make([]list.Item, len(msg.Entries))
		for i, a := range msg.Entries {
			items[i] = entryItem{a: a}
		}
		cmds = append(cmds, m.list.SetItems(items))
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	if !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading activity…")
	}
	return m.list.View()
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
