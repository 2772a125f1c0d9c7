package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/kcal/internal/config"
	"github.com/theirongolddev/kcal/internal/tui"
	"github.com/theirongolddev/kcal/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// The TUI edits its own copy of the log; next to a daemon those edits
	// would be overwritten by the daemon's next save.
	if runningDaemon(cmd.Context()) != nil {
		return errors.New("kcal serve is running; stop it with `kcal serve stop` before opening the TUI, or use kcal add/rm/goal/reset")
	}

	log, err := openLog(true)
	if err != nil {
		return err
	}
	defer log.Close()

	theme.SetActive(log.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(log.Log, !config.Exists())
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
