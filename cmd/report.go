package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/timecalc"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show completed intervals and focus time per day for this week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type daySummary struct {
	Day          string `json:"day"`
	Intervals    int    `json:"intervals"`
	Described    int    `json:"described"`
	FocusMinutes int64  `json:"focus_minutes"`
	focus        time.Duration
}

type weekReport struct {
	Week         string       `json:"week"`
	Days         []daySummary `json:"days"`
	TotalMinutes int64        `json:"total_minutes"`
	total        time.Duration
}

func buildReport(records []model.CompletionRecord, label string) weekReport {
	byDay := map[string]*daySummary{}
	for _, r := range records {
		day := r.EndTime.Format("2006-01-02")
		s, ok := byDay[day]
		if !ok {
			s = &daySummary{Day: day}
			byDay[day] = s
		}
		s.Intervals++
		if !r.Skipped() {
			s.Described++
		}
		s.focus += r.Duration()
	}

	rep := weekReport{Week: label, Days: []daySummary{}}
	for _, s := range byDay {
		s.FocusMinutes = int64(s.focus / time.Minute)
		rep.total += s.focus
		rep.Days = append(rep.Days, *s)
	}
	sort.Slice(rep.Days, func(i, j int) bool { return rep.Days[i].Day < rep.Days[j].Day })
	rep.TotalMinutes = int64(rep.total / time.Minute)
	return rep
}

func runReport(cmd *cobra.Command, args []string) error {
	now := time.Now()
	from, to := timecalc.WeekRange(now)
	rep := buildReport(loadRecords(from, to), timecalc.ISOWeekLabel(now))
	return printReport(os.Stdout, rep, reportFormat)
}

func printReport(w io.Writer, rep weekReport, format string) error {
	switch format {
	case "csv":
		fmt.Fprintln(w, "day,intervals,described,focus_minutes")
		for _, d := range rep.Days {
			fmt.Fprintf(w, "%s,%d,%d,%d\n", d.Day, d.Intervals, d.Described, d.FocusMinutes)
		}
	case "json":
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "md":
		fmt.Fprintf(w, "Week %s\n", rep.Week)
		fmt.Fprintln(w, "--------------------------------")
		for _, d := range rep.Days {
			fmt.Fprintf(w, "%-12s%3d  %s\n", d.Day, d.Intervals, timecalc.FormatDuration(d.focus))
		}
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-17s%s\n", "Total", timecalc.FormatDuration(rep.total))
	default:
		return fmt.Errorf("unknown format %q (want md, csv or json)", format)
	}
	return nil
}
