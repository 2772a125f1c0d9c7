package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/kcal/internal/cli"
	"github.com/theirongolddev/kcal/internal/tracker"
	"github.com/theirongolddev/kcal/internal/tui/components"
	"github.com/theirongolddev/kcal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	// First-run setup wizard
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	if a.confirmForm != nil {
		return a.viewConfirm()
	}

	return a.viewMain()
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) viewTooNarrow() string {
	h := max(a.height, minContentHeight)

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  kcal needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewConfirm() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Orange).
		Padding(1, 3)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(a.confirmForm.View()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Inputs", []struct{ key, desc string }{
			{"Tab ⇧Tab", "Next / previous field"},
			{"Enter", "Add meal"},
			{"Esc", "Go to entry list"},
			{"^r", "Reset today"},
		}},
		{"Entry list", []struct{ key, desc string }{
			{"j k", "Move selection"},
			{"d x Del", "Delete selected meal"},
			{"a", "Add a meal"},
			{"o", "Edit goal"},
			{"r", "Reset today"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := a.renderHeader(w)
	statusBar := a.renderStatusBar(w)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	content := a.renderDashboard(cw, contentH)
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderHeader(w int) string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	dateStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	left := logoStyle.Render(" ◈ kcal")
	right := dateStyle.Render(a.log.DisplayDate() + " ")
	gap := max(w-lipgloss.Width(left)-lipgloss.Width(right), 0)

	return lipgloss.NewStyle().Background(t.Surface).Width(w).
		Render(left + dateStyle.Render(strings.Repeat(" ", gap)) + right)
}

func (a App) renderDashboard(cw, contentH int) string {
	totals := a.view.totals

	remainingNote := "left today"
	if totals.Remaining < 0 {
		remainingNote = "over goal"
	}
	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Total", Value: cli.FormatCalories(totals.Total), Note: fmt.Sprintf("%d meals", len(a.view.snap.Entries))},
		{Label: "Remaining", Value: cli.FormatCalories(totals.Remaining), Note: remainingNote, Alert: totals.Remaining < 0},
		{Label: "Goal", Value: cli.FormatCalories(a.view.snap.Goal), Note: "daily"},
	}, cw)

	bar := components.ContentCard("Progress",
		components.GoalBar(totals, components.CardInnerWidth(cw)), cw)

	inputs := a.renderInputs(cw)

	usedH := lipgloss.Height(metrics) + lipgloss.Height(bar) + lipgloss.Height(inputs)
	listH := max(contentH-usedH-2, 1) // card border
	list := a.renderEntries(cw, listH)

	return lipgloss.JoinVertical(lipgloss.Left, metrics, bar, inputs, list)
}

func (a App) renderInputs(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	activeLabel := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	field := func(label string, f focusArea, view string) string {
		ls := labelStyle
		if a.focus == f {
			ls = activeLabel
		}
		return ls.Render(fmt.Sprintf("%-10s", label)) + view
	}

	a.nameIn.Width = inner - 12
	a.calIn.Width = 8
	a.goalIn.Width = 8

	var b strings.Builder
	b.WriteString(field("Meal", focusName, a.nameIn.View()))
	b.WriteString("\n")
	b.WriteString(field("Calories", focusCalories, a.calIn.View()))
	b.WriteString("\n")
	b.WriteString(field("Goal", focusGoal, a.goalIn.View()))
	if a.warning != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("⚠ " + a.warning))
	}

	if a.focus == focusList {
		return components.ContentCard("Add meal", b.String(), cw)
	}
	return components.FocusedCard("Add meal", b.String(), cw)
}

func (a App) renderEntries(cw, maxRows int) string {
	t := theme.Active

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	inner := components.CardInnerWidth(cw)
	title := fmt.Sprintf("Today's meals (%d)", len(a.view.snap.Entries))

	lines := a.view.lines
	if len(lines) == 1 && lines[0].Placeholder {
		body := mutedStyle.Render(tracker.EmptyPlaceholder)
		if a.focus == focusList {
			return components.FocusedCard(title, body, cw)
		}
		return components.ContentCard(title, body, cw)
	}

	// Scroll so the cursor stays visible.
	offset := 0
	if maxRows > 0 && a.cursor >= maxRows {
		offset = a.cursor - maxRows + 1
	}
	end := min(offset+maxRows, len(lines))

	timeW := 12
	calW := 10
	nameW := max(inner-timeW-calW-2, 8)

	var b strings.Builder
	for i := offset; i < end; i++ {
		ln := lines[i]
		name := ln.Name
		if lipgloss.Width(name) > nameW {
			name = truncate(name, nameW)
		}
		row := fmt.Sprintf("%-*s %*s %*s", nameW, name, timeW, ln.RecordedAt, calW, cli.FormatCalories(ln.Calories))

		style := rowStyle
		if a.focus == focusList && i == a.cursor {
			style = selStyle
		}
		b.WriteString(style.Render(row))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if a.focus == focusList {
		return components.FocusedCard(title, b.String(), cw)
	}
	return components.ContentCard(title, b.String(), cw)
}

func (a App) renderStatusBar(w int) string {
	hints := "tab fields · enter add · esc list · ^r reset · ^c quit"
	if a.focus == focusList {
		hints = "j/k move · d delete · a add · r reset · ? help · q quit"
	}

	status := ""
	if !a.view.changed.IsZero() {
		status = "saved " + a.view.changed.Format("15:04:05")
	}
	if a.saveErr != nil {
		status = a.saveErr.Error()
	}

	return components.RenderStatusBar(w, hints, status, a.saveErr != nil)
}

// ─── Helpers ────────────────────────────────────────────────────

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
