package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/timecalc"
)

var (
	listToday bool
	listWeek  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded work intervals, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's records")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's records")
}

func runList(cmd *cobra.Command, args []string) error {
	now := time.Now()

	var from, to time.Time
	switch {
	case listWeek:
		from, to = timecalc.WeekRange(now)
	case listToday:
		from = timecalc.StartOfDay(now)
		to = timecalc.EndOfDay(now)
	}

	printList(os.Stdout, loadRecords(from, to))
	return nil
}

// printList groups records by the day they ended and prints them.
func printList(w io.Writer, records []model.CompletionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	var currentDay string
	for _, r := range records {
		day := r.EndTime.Format("2006-01-02")
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}

		desc := r.Description
		if r.Skipped() {
			desc = "(no description)"
		}
		tags := ""
		if len(r.Tags) > 0 {
			tags = "  #" + strings.Join(r.Tags, " #")
		}

		fmt.Fprintf(w, "  %s–%s  %s%s (%s)\n",
			r.StartTime.Format("15:04"), r.EndTime.Format("15:04"),
			desc, tags, timecalc.FormatDuration(r.Duration()))
	}
}
