// Package tui provides the interactive Bubble Tea dashboard for kcal.
package tui

import (
	"errors"
	"strconv"
	"time"

	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/tracker"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// focusArea is the part of the screen receiving key presses.
type focusArea int

const (
	focusName focusArea = iota
	focusCalories
	focusGoal
	focusList
	focusCount // sentinel
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 110
	minContentHeight = 5

	rolloverInterval = time.Minute
)

// warnInvalidEntry is shown when an entry is rejected.
const warnInvalidEntry = "Please enter a valid meal name and calorie amount"

// logView is the render-side copy of the log, refreshed by the log's
// change subscription.
type logView struct {
	snap    model.Snapshot
	totals  model.Totals
	lines   []tracker.Line
	changed time.Time
}

// App is the root Bubble Tea model.
type App struct {
	log  *tracker.Log
	view *logView

	nameIn textinput.Model
	calIn  textinput.Model
	goalIn textinput.Model
	focus  focusArea
	cursor int

	warning string
	saveErr error

	// Reset confirmation (huh form)
	confirmForm  *huh.Form
	confirmReset *bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	showHelp bool
	width    int
	height   int
}

// NewApp creates the TUI over log. needSetup shows the first-run form.
func NewApp(log *tracker.Log, needSetup bool) App {
	view := &logView{}
	refresh := func(snap model.Snapshot, totals model.Totals) {
		view.snap = snap
		view.totals = totals
		view.lines = log.Lines()
		view.changed = time.Now()
	}
	log.Subscribe(refresh)
	refresh(log.Snapshot(), log.Totals())
	view.changed = time.Time{}

	a := App{
		log:       log,
		view:      view,
		nameIn:    newInput("Meal name", 64),
		calIn:     newInput("Calories", 7),
		goalIn:    newInput("2000", 7),
		needSetup: needSetup,
	}
	a.goalIn.SetValue(strconv.Itoa(log.Goal()))
	a.focusOn(focusName)

	if needSetup {
		a.setupVals = &SetupValues{}
		a.setupForm = newSetupForm(log.Goal(), a.setupVals)
	}

	return a
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	return ti
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, rolloverTick()}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

type rolloverMsg struct{}

func rolloverTick() tea.Cmd {
	return tea.Tick(rolloverInterval, func(time.Time) tea.Msg {
		return rolloverMsg{}
	})
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(min(msg.Width, maxContentWidth)).WithHeight(msg.Height)
		}
		return a, nil

	case rolloverMsg:
		if _, err := a.log.Rollover(); err != nil {
			a.saveErr = err
		}
		a.clampCursor()
		return a, rolloverTick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.confirmForm != nil {
			return a.updateConfirmForm(msg)
		}

		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		return a.handleKey(msg)
	}

	// Forward unhandled messages (cursor blinks, etc.) to whatever has focus.
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.confirmForm != nil {
		return a.updateConfirmForm(msg)
	}
	return a.updateFocusedInput(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Any key dismisses the last warning.
	a.warning = ""

	switch key {
	case "tab":
		return a, a.focusOn((a.focus + 1) % focusCount)
	case "shift+tab":
		return a, a.focusOn((a.focus - 1 + focusCount) % focusCount)
	case "ctrl+r":
		return a.openConfirm()
	case "esc":
		return a, a.focusOn(focusList)
	}

	switch a.focus {
	case focusName, focusCalories:
		if key == "enter" {
			return a.submitEntry()
		}
		return a.updateFocusedInput(msg)

	case focusGoal:
		if key == "enter" {
			return a, a.focusOn(focusName)
		}
		before := a.goalIn.Value()
		m, cmd := a.updateFocusedInput(msg)
		a = m.(App)
		if a.goalIn.Value() != before {
			// The goal applies on every edit, not only on enter.
			a.saveErr = a.log.SetGoalText(a.goalIn.Value())
		}
		return a, cmd

	case focusList:
		return a.handleListKey(key)
	}

	return a, nil
}

func (a App) handleListKey(key string) (tea.Model, tea.Cmd) {
	entries := a.view.snap.Entries

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.showHelp = true
	case "j", "down":
		if a.cursor < len(entries)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g", "home":
		a.cursor = 0
	case "G", "end":
		a.cursor = max(len(entries)-1, 0)
	case "d", "x", "delete", "backspace":
		if a.cursor < len(entries) {
			a.saveErr = a.log.DeleteEntry(entries[a.cursor].ID)
			a.clampCursor()
		}
	case "a", "i", "enter":
		return a, a.focusOn(focusName)
	case "c":
		return a, a.focusOn(focusCalories)
	case "o":
		return a, a.focusOn(focusGoal)
	case "r":
		return a.openConfirm()
	}
	return a, nil
}

// submitEntry adds the entry typed into the name and calorie fields. On
// success both fields are cleared and focus returns to the name field.
func (a App) submitEntry() (tea.Model, tea.Cmd) {
	_, err := a.log.AddEntry(a.nameIn.Value(), a.calIn.Value())
	if errors.Is(err, tracker.ErrInvalidEntry) {
		a.warning = warnInvalidEntry
		return a, nil
	}
	a.saveErr = err

	a.nameIn.Reset()
	a.calIn.Reset()
	a.cursor = len(a.view.snap.Entries) - 1
	return a, a.focusOn(focusName)
}

func (a App) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.focus {
	case focusName:
		a.nameIn, cmd = a.nameIn.Update(msg)
	case focusCalories:
		a.calIn, cmd = a.calIn.Update(msg)
	case focusGoal:
		a.goalIn, cmd = a.goalIn.Update(msg)
	}
	return a, cmd
}

// focusOn moves keyboard focus, blurring every other input.
func (a *App) focusOn(f focusArea) tea.Cmd {
	a.focus = f
	a.nameIn.Blur()
	a.calIn.Blur()
	a.goalIn.Blur()

	switch f {
	case focusName:
		return a.nameIn.Focus()
	case focusCalories:
		return a.calIn.Focus()
	case focusGoal:
		// Show the live goal, which the setup form may have changed.
		a.goalIn.SetValue(strconv.Itoa(a.log.Goal()))
		a.goalIn.CursorEnd()
		return a.goalIn.Focus()
	}
	return nil
}

func (a *App) clampCursor() {
	n := len(a.view.snap.Entries)
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// ─── Reset confirmation ─────────────────────────────────────────

func (a App) openConfirm() (tea.Model, tea.Cmd) {
	a.confirmReset = new(bool)
	a.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(tracker.ResetPrompt).
				Description("Entries are cleared; the goal is kept.").
				Affirmative("Reset").
				Negative("Cancel").
				Value(a.confirmReset),
		),
	).WithShowHelp(false).WithWidth(min(max(a.width-4, 40), 60))
	return a, a.confirmForm.Init()
}

func (a App) updateConfirmForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.confirmForm = nil
		return a, nil
	}

	form, cmd := a.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.confirmForm = f
	}

	switch a.confirmForm.State {
	case huh.StateCompleted:
		answer := *a.confirmReset
		_, a.saveErr = a.log.ResetDay(func(string) bool { return answer })
		a.confirmForm = nil
		a.clampCursor()
		return a, nil
	case huh.StateAborted:
		a.confirmForm = nil
		return a, nil
	}

	return a, cmd
}
