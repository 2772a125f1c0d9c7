package cmd

import (
	"fmt"

	"github.com/theirongolddev/kcal/internal/cli"
	"github.com/theirongolddev/kcal/internal/model"

	"github.com/spf13/cobra"
)

var goalCmd = &cobra.Command{
	Use:     "goal [VALUE]",
	Short:   "Show or set today's calorie goal",
	Long:    "Show or set today's calorie goal. Values are read leniently: anything that is not a number sets the goal to 0.",
	Example: "  kcal goal 1800\n  kcal goal -- -200",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runGoal,
}

func init() {
	rootCmd.AddCommand(goalCmd)
}

func runGoal(cmd *cobra.Command, args []string) error {
	var (
		goal   int
		totals model.Totals
	)

	if remote := runningDaemon(cmd.Context()); remote != nil {
		state, err := remote.Log(cmd.Context())
		if len(args) == 1 && err == nil {
			state, err = remote.SetGoal(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		goal, totals = state.Goal, state.Totals
	} else {
		log, err := openLog(false)
		if err != nil {
			return err
		}
		defer log.Close()

		if len(args) == 1 {
			if err := log.SetGoalText(args[0]); err != nil {
				return err
			}
		}
		goal, totals = log.Goal(), log.Totals()
	}

	if flagQuiet {
		return nil
	}
	fmt.Printf("  Goal: %s\n", cli.FormatCalories(goal))
	fmt.Println("  " + cli.RenderGoalBar(totals, 40))
	return nil
}
