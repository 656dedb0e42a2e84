package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's completed work intervals",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	records := loadRecords(timecalc.StartOfDay(now), timecalc.EndOfDay(now))
	printStatus(os.Stdout, records)
	return nil
}

// printStatus summarises records, most recent first.
func printStatus(w io.Writer, records []model.CompletionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No work intervals recorded today.")
		return
	}

	var total time.Duration
	for _, r := range records {
		total += r.Duration()
	}
	fmt.Fprintf(w, "Today: %d work interval(s), %s focused\n", len(records), formatElapsed(int64(total/time.Second)))

	last := records[0]
	desc := last.Description
	if last.Skipped() {
		desc = "(no description)"
	}
	fmt.Fprintf(w, "Last: %s at %s\n", desc, last.EndTime.Format("15:04"))
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
