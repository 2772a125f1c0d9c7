package cmd

import (
	"fmt"
	"io"

	"github.com/theirongolddev/kcal/internal/cli"
	"github.com/theirongolddev/kcal/internal/daemon"
	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/tracker"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show today's meals, totals and goal progress",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

// summaryView is what the summary renders, read from either the local store
// or a running daemon.
type summaryView struct {
	DisplayDate string
	Goal        int
	Lines       []tracker.Line
	Totals      model.Totals
}

func viewOfLog(log *tracker.Log) summaryView {
	return summaryView{
		DisplayDate: log.DisplayDate(),
		Goal:        log.Goal(),
		Lines:       log.Lines(),
		Totals:      log.Totals(),
	}
}

func viewOfState(st daemon.LogState) summaryView {
	return summaryView{
		DisplayDate: st.DisplayDate,
		Goal:        st.Goal,
		Lines:       tracker.LinesOf(st.Entries),
		Totals:      st.Totals,
	}
}

func runSummary(cmd *cobra.Command, _ []string) error {
	// A running daemon holds the store open, bolt exclusively, and its log
	// is the current one.
	if c := runningDaemon(cmd.Context()); c != nil {
		st, err := c.Log(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading log from daemon: %w", err)
		}
		printSummary(cmd.OutOrStdout(), viewOfState(st))
		return nil
	}

	log, err := openLog(false)
	if err != nil {
		return err
	}
	defer log.Close()

	printSummary(cmd.OutOrStdout(), viewOfLog(log.Log))
	return nil
}

// printSummary renders the dashboard for plain terminals: the entries
// table, totals and the goal bar.
func printSummary(w io.Writer, v summaryView) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("CALORIES  "+v.DisplayDate))
	fmt.Fprintln(w)

	if len(v.Lines) == 1 && v.Lines[0].Placeholder {
		fmt.Fprintln(w, "  "+cli.RenderMuted(tracker.EmptyPlaceholder))
	} else {
		rows := make([][]string, 0, len(v.Lines))
		for _, ln := range v.Lines {
			rows = append(rows, []string{
				cli.FormatID(ln.ID),
				ln.Name,
				ln.RecordedAt,
				cli.FormatNumber(int64(ln.Calories)),
			})
		}
		fmt.Fprint(w, cli.RenderTable(cli.Table{
			Title:      "Today's Meals",
			Headers:    []string{"ID", "Meal", "Time", "Calories"},
			Rows:       rows,
			RightAlign: []bool{false, false, true, true},
		}))
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Title: "Totals",
		Rows: [][]string{
			{"Total", cli.FormatCalories(v.Totals.Total)},
			{"Goal", cli.FormatCalories(v.Goal)},
			{"Remaining", cli.RenderRemaining(v.Totals.Remaining)},
		},
	}))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  "+cli.RenderGoalBar(v.Totals, 40))
	fmt.Fprintln(w)
}
