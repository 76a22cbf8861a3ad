package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fieldmap/internal/ui/theme"
)

// PaletteSubmitMsg carries a confirmed command line.
type PaletteSubmitMsg struct{ Input string }

type PaletteCancelMsg struct{}

const (
	maxHints   = 5
	maxHistory = 20
)

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle     = lipgloss.NewStyle().Foreground(theme.Subtext0)
	selectedStyle = lipgloss.NewStyle().Foreground(theme.Peach).Bold(true)
)

// Commands lists the palette vocabulary; app/model.go executePalette must
// handle every verb here.
var Commands = []Command{
	{Verb: "import", Args: "<path>", Help: "load a ticket table"},
	{Verb: "search", Args: "<text>", Help: "select the first id containing text"},
	{Verb: "pick", Args: "[id]", Help: "select a ticket, no id clears"},
	{Verb: "complete", Args: "[id]", Help: "mark completed"},
	{Verb: "block", Args: "[id]", Help: "mark inaccessible"},
	{Verb: "reopen", Args: "[id]", Help: "back to pending"},
	{Verb: "photos", Args: "<path>...", Help: "attach photos to the selection"},
	{Verb: "export", Args: "[dir]", Help: "write the photo archive"},
	{Verb: "report", Help: "write field-report.md"},
	{Verb: "reset", Help: "drop the snapshot and start over"},
	{Verb: "refresh", Help: "reload the view"},
}

type Command struct {
	Verb string
	Args string
	Help string
}

func (c Command) usage() string {
	if c.Args == "" {
		return c.Verb
	}
	return c.Verb + " " + c.Args
}

// Palette is a one-line command prompt with verb completion and a short
// history of submitted lines.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int

	history []string
	// recall indexes history while browsing with up/down; -1 is the live line.
	recall int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "import route.xlsx"
	ti.CharLimit = 256
	return Palette{input: ti, recall: -1}
}

func (p Palette) Visible() bool { return p.visible }

func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.recall = -1
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// History returns submitted lines, newest first.
func (p Palette) History() []string {
	out := make([]string, len(p.history))
	copy(out, p.history)
	return out
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	switch key.String() {
	case "esc":
		p.close()
		return p, func() tea.Msg { return PaletteCancelMsg{} }
	case "enter":
		line := strings.TrimSpace(p.input.Value())
		p.remember(line)
		p.close()
		return p, func() tea.Msg { return PaletteSubmitMsg{Input: line} }
	case "tab":
		if matches := Match(p.input.Value()); len(matches) == 1 {
			p.setLine(matches[0].Verb + " ")
		}
		return p, nil
	case "up":
		if p.recall+1 < len(p.history) {
			p.recall++
			p.setLine(p.history[p.recall])
		}
		return p, nil
	case "down":
		switch {
		case p.recall > 0:
			p.recall--
			p.setLine(p.history[p.recall])
		case p.recall == 0:
			p.recall = -1
			p.setLine("")
		}
		return p, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) setLine(s string) {
	p.input.SetValue(s)
	p.input.CursorEnd()
}

func (p *Palette) remember(line string) {
	if line == "" || (len(p.history) > 0 && p.history[0] == line) {
		return
	}
	p.history = append([]string{line}, p.history...)
	if len(p.history) > maxHistory {
		p.history = p.history[:maxHistory]
	}
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Commands") + "\n")
	sb.WriteString(p.input.View() + "\n")

	matches := Match(p.input.Value())
	if len(matches) > maxHints {
		matches = matches[:maxHints]
	}
	if len(matches) > 0 {
		sb.WriteString("\n")
	}
	for _, c := range matches {
		style := hintStyle
		if len(matches) == 1 {
			style = selectedStyle
		}
		sb.WriteString(style.Render("  "+c.usage()) + hintStyle.Render("  "+c.Help) + "\n")
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

// Match returns the commands whose verb starts with the first word of line.
// Once a full verb and a space are typed only that verb matches.
func Match(line string) []Command {
	word, _, typedArgs := strings.Cut(strings.TrimLeft(strings.ToLower(line), " "), " ")
	var out []Command
	for _, c := range Commands {
		if typedArgs {
			if c.Verb == word {
				return []Command{c}
			}
			continue
		}
		if strings.HasPrefix(c.Verb, word) {
			out = append(out, c)
		}
	}
	return out
}
