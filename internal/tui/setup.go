package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/kcal/internal/config"
	"github.com/theirongolddev/kcal/internal/store"
	"github.com/theirongolddev/kcal/internal/tracker"
	"github.com/theirongolddev/kcal/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// SetupValues is bound to the fields of the setup form.
type SetupValues struct {
	Goal    string
	Theme   string
	Backend string
}

// NewSetupValues seeds form values from cfg.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		Goal:    strconv.Itoa(cfg.General.DefaultGoal),
		Theme:   cfg.Appearance.Theme,
		Backend: cfg.Storage.Backend,
	}
}

// NewSetupForm builds the first-run form over vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to kcal").
				Description("A daily calorie log for your terminal.\nYou can change these later with `kcal setup`."),

			huh.NewInput().
				Title("Daily calorie goal").
				Placeholder("2000").
				Value(&vals.Goal).
				Validate(validateGoal),

			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),

			huh.NewSelect[string]().
				Title("Storage backend").
				Description("Where today's log is kept.").
				Options(
					huh.NewOption("SQLite (kcal.db)", store.BackendSQLite),
					huh.NewOption("bbolt (kcal.bolt)", store.BackendBolt),
					huh.NewOption("In memory (nothing saved)", store.BackendMemory),
				).
				Value(&vals.Backend),
		),
	).WithShowHelp(false)
}

func validateGoal(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if n, ok := tracker.ParseLenientInt(s); !ok || n <= 0 {
		return fmt.Errorf("goal must be a positive number")
	}
	return nil
}

// ApplySetup merges vals into the on-disk config, saves it and activates
// the chosen theme.
func ApplySetup(vals *SetupValues) (config.Config, error) {
	cfg, _ := config.Load()

	if n, ok := tracker.ParseLenientInt(vals.Goal); ok && n > 0 {
		cfg.General.DefaultGoal = n
	}
	if vals.Theme != "" {
		cfg.Appearance.Theme = vals.Theme
		theme.SetActive(vals.Theme)
	}
	if vals.Backend != "" {
		cfg.Storage.Backend = vals.Backend
	}

	return cfg, config.Save(cfg)
}

func newSetupForm(goal int, vals *SetupValues) *huh.Form {
	cfg, _ := config.Load()
	*vals = *NewSetupValues(cfg)
	vals.Goal = strconv.Itoa(goal)
	return NewSetupForm(vals)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cfg, err := ApplySetup(a.setupVals)
		if err != nil {
			a.saveErr = fmt.Errorf("saving config: %w", err)
		}
		// Today's goal follows the new default.
		if goalErr := a.log.SetGoal(cfg.General.DefaultGoal); goalErr != nil && err == nil {
			a.saveErr = goalErr
		}
		a.needSetup = false
		a.setupForm = nil
		return a, a.focusOn(focusName)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, a.focusOn(focusName)
	}

	return a, cmd
}
