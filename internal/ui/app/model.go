package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "fieldmap/internal/modules/session/dto"
	apperrors "fieldmap/internal/platform/errors"
	"fieldmap/internal/ui/components"
	"fieldmap/internal/ui/theme"
	activityview "fieldmap/internal/ui/views/activity"
	"fieldmap/internal/ui/views/mapgrid"
	ticketsview "fieldmap/internal/ui/views/tickets"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	Start(ctx context.Context) (sessiondto.StartOutput, error)
	View(ctx context.Context) (sessiondto.View, error)
	Import(ctx context.Context, path string) (sessiondto.ImportOutput, error)
	Select(ctx context.Context, id string) (sessiondto.Outcome, error)
	Search(ctx context.Context, text string) (sessiondto.Outcome, error)
	Click(ctx context.Context, label string) (sessiondto.Outcome, error)
	SetStatus(ctx context.Context, id, status string) (sessiondto.TransitionOutput, error)
	AttachPhotos(ctx context.Context, ticketID string, paths []string) (sessiondto.SubmitPhotosOutput, error)
	Export(ctx context.Context) (sessiondto.ExportOutput, error)
	Report(ctx context.Context) (sessiondto.ReportOutput, error)
	Reset(ctx context.Context) (sessiondto.ResetOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTickets tabID = iota
	tabMap
	tabActivity
	tabCount
)

var tabLabels = [tabCount]string{"Tickets", "Map", "Activity"}

// ─── async messages ───────────────────────────────────────────────────────────

// viewMsg carries the session view after an operation. A warning error still
// comes with a valid view.
type viewMsg struct {
	view   sessiondto.View
	status string
	err    error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab      key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
	Select   key.Binding
	Complete key.Binding
	Block    key.Binding
	Reopen   key.Binding
	Markers  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "commands")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "make active")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete active")),
		Block:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "block active")),
		Reopen:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reopen active")),
		Markers:  key.NewBinding(key.WithKeys("n", "p"), key.WithHelp("n/p", "map marker focus")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Select, k.Markers},
		{k.Complete, k.Block, k.Reopen},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes input to the tabs and turns
// every session response into a fresh view for all of them.
type Model struct {
	workspace string
	session   sessionPort

	ticketView   ticketsview.Model
	mapView      mapgrid.Model
	activityView activityview.Model

	view      sessiondto.View
	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	warning   bool
	width     int
	height    int
}

func NewModel(workspace string, session sessionPort, activity activityview.Port) Model {
	return Model{
		workspace:    workspace,
		session:      session,
		ticketView:   ticketsview.New(),
		mapView:      mapgrid.New(),
		activityView: activityview.New(activity),
		activeTab:    tabTickets,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(),
		status:       "starting",
	}
}

func (m Model) Init() tea.Cmd {
	return m.startCmd()
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case viewMsg:
		m.warning = msg.err != nil
		switch {
		case msg.err != nil && msg.status != "":
			m.status = msg.status + " (" + msg.err.Error() + ")"
		case msg.err != nil:
			m.status = msg.err.Error()
		default:
			m.status = msg.status
		}
		if msg.view.SessionID != "" {
			m.view = msg.view
			m.mapView.SetView(msg.view)
			cmds = append(cmds, m.ticketView.SetView(msg.view), m.activityView.Refresh())
		}
		return m, tea.Batch(cmds...)

	case ticketsview.SelectMsg:
		return m, m.outcomeCmd("selected "+msg.ID, func(ctx context.Context) (sessiondto.Outcome, error) {
			return m.session.Select(ctx, msg.ID)
		})

	case mapgrid.ClickMsg:
		return m, m.outcomeCmd("clicked "+msg.Label, func(ctx context.Context) (sessiondto.Outcome, error) {
			return m.session.Click(ctx, msg.Label)
		})

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.MouseMsg:
		if m.activeTab != tabMap {
			return m, nil
		}
		msg.Y -= lipgloss.Height(m.renderTabBar())
		var cmd tea.Cmd
		m.mapView, cmd = m.mapView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to sub-view when its search filter is active.
		if m.subViewFiltering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "c":
			return m, m.transitionCmd("", "Completed")
		case "b":
			return m, m.transitionCmd("", "Inaccessible")
		case "r":
			return m, m.transitionCmd("", "Pending")
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTickets:
		m.ticketView, tabCmd = m.ticketView.Update(msg)
	case tabMap:
		m.mapView, tabCmd = m.mapView.Update(msg)
	case tabActivity:
		m.activityView, tabCmd = m.activityView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	// Activity loads arrive while another tab is showing.
	if _, ok := msg.(activityview.LoadedMsg); ok && m.activeTab != tabActivity {
		m.activityView, tabCmd = m.activityView.Update(msg)
		cmds = append(cmds, tabCmd)
	}
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		switch m.activeTab {
		case tabTickets:
			content = m.ticketView.View()
		case tabMap:
			content = m.mapView.View()
		case tabActivity:
			content = m.activityView.View()
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	c := m.view.Counts
	counts := theme.Muted.Render(fmt.Sprintf("  %d pending · %d done · %d blocked · %d photos",
		c.Pending, c.Completed, c.Inaccessible, c.Photos))
	bar := "fieldmap  " + strings.Join(parts, theme.Muted.Render(" │ ")) + counts
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.warning {
		left = theme.Warn.Render(left)
	}
	if m.view.Active != nil {
		left = theme.Hot.Render("● "+m.view.Active.Ticket.ID) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  ::commands  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch strings.ToLower(parts[0]) {
	case "import":
		if rest == "" {
			m.status = "usage: import <path>"
			return m, nil
		}
		path := m.resolve(rest)
		return m, m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
			out, err := m.session.Import(ctx, path)
			s := out.Summary
			return out.Outcome.View, fmt.Sprintf("imported %d of %d rows from %s", s.Imported, s.Rows, filepath.Base(path)), err
		})

	case "search":
		return m, m.outcomeCmd("search "+rest, func(ctx context.Context) (sessiondto.Outcome, error) {
			return m.session.Search(ctx, rest)
		})

	case "pick":
		choice, label := rest, "picked "+rest
		if choice == "" && len(m.view.Choices) > 0 {
			// The first picker entry is the no-selection sentinel.
			choice, label = m.view.Choices[0], "selection cleared"
		}
		return m, m.outcomeCmd(label, func(ctx context.Context) (sessiondto.Outcome, error) {
			return m.session.Select(ctx, choice)
		})

	case "complete":
		return m, m.transitionCmd(rest, "Completed")
	case "block":
		return m, m.transitionCmd(rest, "Inaccessible")
	case "reopen":
		return m, m.transitionCmd(rest, "Pending")

	case "photos":
		if len(parts) < 2 {
			m.status = "usage: photos <path> [path...]"
			return m, nil
		}
		paths := make([]string, 0, len(parts)-1)
		for _, p := range parts[1:] {
			paths = append(paths, m.resolve(p))
		}
		return m, m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
			out, err := m.session.AttachPhotos(ctx, "", paths)
			return out.Outcome.View, fmt.Sprintf("%d photos stored for %s", out.Stored, out.TicketID), err
		})

	case "export":
		dir := m.workspace
		if rest != "" {
			dir = m.resolve(rest)
		}
		return m, m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
			archive, err := m.session.Export(ctx)
			if err != nil {
				return sessiondto.View{}, "", err
			}
			path := filepath.Join(dir, archive.Filename)
			if err := os.WriteFile(path, archive.Data, 0o644); err != nil {
				return sessiondto.View{}, "", fmt.Errorf("write archive: %w", err)
			}
			return sessiondto.View{}, fmt.Sprintf("wrote %s (%d photos)", path, archive.Entries), nil
		})

	case "report":
		return m, m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
			out, err := m.session.Report(ctx)
			if err != nil {
				return sessiondto.View{}, "", err
			}
			return sessiondto.View{}, "report written to " + out.Path, nil
		})

	case "reset":
		return m, m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
			out, err := m.session.Reset(ctx)
			view, viewErr := m.session.View(ctx)
			status := "session reset"
			if out.NotePath != "" {
				status += ", summary " + out.NotePath
			}
			return view, status, errors.Join(err, viewErr)
		})

	case "refresh":
		return m, m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
			view, err := m.session.View(ctx)
			return view, "refreshed", err
		})

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabTickets:
		return m.ticketView.Filtering()
	case tabActivity:
		return m.activityView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 4}
	m.ticketView, _ = m.ticketView.Update(sz)
	m.mapView, _ = m.mapView.Update(sz)
	m.activityView, _ = m.activityView.Update(sz)
}

func (m Model) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.workspace, path)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) startCmd() tea.Cmd {
	return m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
		started, err := m.session.Start(ctx)
		if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
			return sessiondto.View{}, "", err
		}
		view, viewErr := m.session.View(ctx)
		status := "ready"
		if started.Restored {
			status = fmt.Sprintf("restored %d tickets", started.Tickets)
		}
		return view, status, errors.Join(err, viewErr)
	})
}

func (m Model) viewCmd(fn func(ctx context.Context) (sessiondto.View, string, error)) tea.Cmd {
	return func() tea.Msg {
		view, status, err := fn(context.Background())
		return viewMsg{view: view, status: status, err: err}
	}
}

func (m Model) outcomeCmd(status string, fn func(ctx context.Context) (sessiondto.Outcome, error)) tea.Cmd {
	return m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
		out, err := fn(ctx)
		if err == nil && !out.Changed {
			status += " (no change)"
		}
		return out.View, status, err
	})
}

func (m Model) transitionCmd(id, status string) tea.Cmd {
	return m.viewCmd(func(ctx context.Context) (sessiondto.View, string, error) {
		out, err := m.session.SetStatus(ctx, id, status)
		if out.From == "" {
			return out.Outcome.View, "", err
		}
		return out.Outcome.View, fmt.Sprintf("%s: %s → %s", out.TicketID, out.From, out.To), err
	})
}
