package cmd

import (
	"fmt"

	"github.com/theirongolddev/kcal/internal/tracker"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var flagResetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear today's meals (the goal is kept)",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&flagResetYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

// promptConfirm asks the yes/no question in the terminal unless --yes was
// given. A prompt that cannot run counts as a no.
func promptConfirm(prompt string) (bool, error) {
	if flagResetYes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Reset").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation: %w", err)
	}
	return ok, nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	var (
		reset bool
		goal  int
	)

	if remote := runningDaemon(cmd.Context()); remote != nil {
		ok, err := promptConfirm(tracker.ResetPrompt)
		if err != nil {
			return err
		}
		state, err := remote.Reset(cmd.Context(), ok)
		if err != nil {
			return err
		}
		reset, goal = ok, state.Goal
	} else {
		log, err := openLog(false)
		if err != nil {
			return err
		}
		defer log.Close()

		var promptErr error
		reset, err = log.ResetDay(func(prompt string) bool {
			ok, err := promptConfirm(prompt)
			promptErr = err
			return ok
		})
		if promptErr != nil {
			return promptErr
		}
		if err != nil {
			return err
		}
		goal = log.Goal()
	}

	if !flagQuiet {
		if reset {
			fmt.Printf("  Cleared today's meals. Goal stays at %d.\n", goal)
		} else {
			fmt.Println("  Nothing changed.")
		}
	}
	return nil
}
