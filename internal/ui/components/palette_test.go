package components_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap/internal/ui/components"
)

func verbs(cmds []components.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Verb)
	}
	return out
}

func TestMatch(t *testing.T) {
	t.Parallel()
	assert.Len(t, components.Match(""), len(components.Commands))
	assert.Equal(t, []string{"reopen", "report", "reset", "refresh"}, verbs(components.Match("re")))
	assert.Equal(t, []string{"pick"}, verbs(components.Match("pick T-1")))
	assert.Empty(t, components.Match("pic T-1"))
	assert.Equal(t, []string{"complete"}, verbs(components.Match("COMP")))
}

func typeLine(p components.Palette, line string) components.Palette {
	for _, r := range line {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return p
}

func submit(t *testing.T, p components.Palette) (components.Palette, string) {
	t.Helper()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(components.PaletteSubmitMsg)
	require.True(t, ok)
	return p, msg.Input
}

func TestPaletteSubmitCompleteAndHistory(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()

	p = typeLine(p, "sea")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p = typeLine(p, "100")
	p, line := submit(t, p)
	assert.Equal(t, "search 100", line)
	assert.False(t, p.Visible())

	p.Open()
	p = typeLine(p, "complete")
	p, _ = submit(t, p)
	assert.Equal(t, []string{"complete", "search 100"}, p.History())

	p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	_, line = submit(t, p)
	assert.Equal(t, "search 100", line)
}

func TestPaletteEscCancels(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, ok := cmd().(components.PaletteCancelMsg)
	assert.True(t, ok)
	assert.False(t, p.Visible())
	assert.Empty(t, p.History())
}
