package components

import (
	"fmt"

	"github.com/theirongolddev/kcal/internal/cli"
	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// GoalBar renders the daily progress bar followed by its percentage.
func GoalBar(totals model.Totals, width int) string {
	t := theme.Active

	barW := width - 6 // " " plus a five-column percentage
	if barW < 4 {
		barW = 4
	}

	color := t.GoalColor(totals.Over)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(totals.Fraction()) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5s", cli.FormatPercent(totals.Percentage)))
}
