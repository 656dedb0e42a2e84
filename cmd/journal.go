package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/timecalc"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the local record journal",
}

func init() {
	journalCmd.AddCommand(listCmd)
	journalCmd.AddCommand(exportCmd)
	journalCmd.AddCommand(reportCmd)
}

// loadRecords returns journal records whose end time lies in [from, to],
// most recent first. A zero from means no lower bound.
func loadRecords(from, to time.Time) []model.CompletionRecord {
	base := dataDir()
	cfg := loadConfig(base)
	j, store := openJournal(base, cfg)
	defer store.Close()
	return filterRecords(j.List(), from, to)
}

func filterRecords(records []model.CompletionRecord, from, to time.Time) []model.CompletionRecord {
	if from.IsZero() {
		return records
	}
	var out []model.CompletionRecord
	for _, r := range records {
		if timecalc.Within(r.EndTime, from, to) {
			out = append(out, r)
		}
	}
	return out
}
