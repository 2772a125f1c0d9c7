package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/kcal/internal/cli"
	"github.com/theirongolddev/kcal/internal/daemon"
	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/tracker"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add NAME CALORIES",
	Short:   "Add a meal to today's log",
	Example: "  kcal add Oatmeal with berries 350\n  kcal add Snack -5    # rejected: calories must be positive",
	Args:    cobra.MinimumNArgs(2),
	RunE:    runAdd,
}

func init() {
	// Flags end at the meal name so a calorie value like "-5" reaches runAdd.
	addCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	// The name may span several words; calories are always last.
	name := strings.Join(args[:len(args)-1], " ")
	calories := args[len(args)-1]

	var (
		entry  model.MealEntry
		totals model.Totals
		goal   int
		err    error
	)
	if remote := runningDaemon(cmd.Context()); remote != nil {
		entry, err = remote.AddEntry(cmd.Context(), name, calories)
		if err == nil {
			var state daemon.LogState
			state, err = remote.Log(cmd.Context())
			totals, goal = state.Totals, state.Goal
		}
	} else {
		log, openErr := openLog(false)
		if openErr != nil {
			return openErr
		}
		defer log.Close()
		entry, err = log.AddEntry(name, calories)
		totals, goal = log.Totals(), log.Goal()
	}

	if errors.Is(err, tracker.ErrInvalidEntry) {
		fmt.Fprintln(cmd.ErrOrStderr(), "  "+cli.RenderWarning("Please enter a valid meal name and calorie amount"))
		// The warning is the message; only the exit status is left to report.
		cmd.SilenceErrors = true
		return err
	}
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("  Added %s (%s) at %s  [id %s]\n",
			entry.Name, cli.FormatCalories(entry.Calories), entry.RecordedAt, cli.FormatID(entry.ID))
		fmt.Printf("  Total %s of %s, %s remaining\n",
			cli.FormatCalories(totals.Total), cli.FormatCalories(goal), cli.RenderRemaining(totals.Remaining))
	}
	return nil
}
