package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/kcal/internal/cli"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Remove a meal from today's log",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entry id %q", args[0])
	}

	var before, after, total int
	if remote := runningDaemon(cmd.Context()); remote != nil {
		state, err := remote.Log(cmd.Context())
		if err != nil {
			return err
		}
		before = len(state.Entries)
		if err := remote.DeleteEntry(cmd.Context(), id); err != nil {
			return err
		}
		if state, err = remote.Log(cmd.Context()); err != nil {
			return err
		}
		after, total = len(state.Entries), state.Totals.Total
	} else {
		log, err := openLog(false)
		if err != nil {
			return err
		}
		defer log.Close()

		before = len(log.Entries())
		if err := log.DeleteEntry(id); err != nil {
			return err
		}
		after, total = len(log.Entries()), log.Totals().Total
	}

	if flagQuiet {
		return nil
	}
	if after == before {
		fmt.Println("  " + cli.RenderMuted(fmt.Sprintf("No meal with id %d", id)))
		return nil
	}
	fmt.Printf("  Removed %d, total now %s\n", id, cli.FormatCalories(total))
	return nil
}
