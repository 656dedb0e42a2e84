package cmd

import (
	"encoding/json"
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
	exportFormat string
	exportWeek   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journal records to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().BoolVar(&exportWeek, "week", false, "Only export this week's records")
}

func runExport(cmd *cobra.Command, args []string) error {
	var from, to time.Time
	if exportWeek {
		from, to = timecalc.WeekRange(time.Now())
	}
	records := loadRecords(from, to)

	switch exportFormat {
	case "json":
		if err := printJSON(os.Stdout, records); err != nil {
			fail(fmt.Errorf("error encoding JSON: %w", err))
		}
	case "md":
		printList(os.Stdout, records)
	case "csv":
		printCSV(os.Stdout, records)
	default:
		return fmt.Errorf("unknown format %q (want csv, json or md)", exportFormat)
	}
	return nil
}

// printJSON writes records in the persisted journal format.
func printJSON(w io.Writer, records []model.CompletionRecord) error {
	if records == nil {
		records = []model.CompletionRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printCSV(w io.Writer, records []model.CompletionRecord) {
	fmt.Fprintln(w, "date,description,tags,start,end,duration_minutes")
	for _, r := range records {
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%d\n",
			csvEscape(r.EndTime.Format("2006-01-02")),
			csvEscape(r.Description),
			csvEscape(strings.Join(r.Tags, ";")),
			csvEscape(r.StartTime.Format(time.RFC3339)),
			csvEscape(r.EndTime.Format(time.RFC3339)),
			int64(r.Duration()/time.Minute),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
