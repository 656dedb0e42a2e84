package timecalc_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/trivial-pomodoro/internal/timecalc"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{time.Minute, "1m"},
		{90 * time.Second, "1m"},
		{time.Hour, "1h 0m"},
		{time.Hour + 61*time.Second, "1h 1m"},
		{90 * time.Minute, "1h 30m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.d)
		if got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-5 * time.Second, "00:00"},
		{time.Millisecond, "00:01"},
		{61 * time.Second, "01:01"},
		{25 * time.Minute, "25:00"},
		{24*time.Minute + 59500*time.Millisecond, "25:00"},
		{time.Hour + 61*time.Second, "1:01:01"},
	}
	for _, tt := range tests {
		got := timecalc.FormatCountdown(tt.d)
		if got != tt.want {
			t.Errorf("FormatCountdown(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 27, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	if !timecalc.SameDay(a, b) {
		t.Error("SameDay: expected same day for a and b")
	}
	if timecalc.SameDay(a, c) {
		t.Error("SameDay: expected different day for a and c")
	}
}

func TestWithin(t *testing.T) {
	from := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	to := timecalc.EndOfDay(from)
	if !timecalc.Within(from, from, to) || !timecalc.Within(to, from, to) {
		t.Error("Within: bounds must be inclusive")
	}
	if timecalc.Within(to.Add(time.Second), from, to) {
		t.Error("Within: expected time after range to be excluded")
	}
}
