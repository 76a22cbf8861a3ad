package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")
	Yellow   = lipgloss.Color("#f9e2af")

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(0, 1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Warn  = lipgloss.NewStyle().Foreground(Yellow)
)

// Marker returns the style for a map marker style name. Unknown names render
// like pending markers.
func Marker(style string) lipgloss.Style {
	switch style {
	case "done":
		return lipgloss.NewStyle().Foreground(Green)
	case "blocked":
		return lipgloss.NewStyle().Foreground(Red)
	case "active":
		return lipgloss.NewStyle().Foreground(Peach).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Sapphire)
	}
}

// Status colours a ticket status the same way as its marker.
func Status(status string) lipgloss.Style {
	switch status {
	case "Completed":
		return Marker("done")
	case "Inaccessible":
		return Marker("blocked")
	default:
		return Marker("pending")
	}
}
