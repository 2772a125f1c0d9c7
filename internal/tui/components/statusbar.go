package components

import (
	"strings"

	"github.com/theirongolddev/kcal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left and
// right-aligned status text.
func RenderStatusBar(width int, hints, status string, statusErr bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	statusStyle := style
	if statusErr {
		statusStyle = statusStyle.Foreground(t.Orange)
	}

	left := style.Render(" " + hints)
	right := ""
	if status != "" {
		right = statusStyle.Render(status + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return lipgloss.NewStyle().Background(t.Surface).Width(width).
		Render(left + style.Render(strings.Repeat(" ", padding)) + right)
}

