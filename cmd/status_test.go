package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/trivial-pomodoro/internal/model"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{30, "30s"},
		{59, "59s"},
		{60, "1m 0s"},
		{90, "1m 30s"},
		{3600, "1h 0m 0s"},
		{3661, "1h 1m 1s"},
		{7322, "2h 2m 2s"},
	}
	for _, tt := range tests {
		got := formatElapsed(tt.seconds)
		if got != tt.want {
			t.Errorf("formatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, nil)
	assert.Equal(t, "No work intervals recorded today.\n", buf.String())

	buf.Reset()
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	printStatus(&buf, []model.CompletionRecord{
		{Description: "", StartTime: start.Add(30 * time.Minute), EndTime: start.Add(55 * time.Minute)},
		{Description: "wrote tests", StartTime: start, EndTime: start.Add(25 * time.Minute)},
	})
	assert.Equal(t, "Today: 2 work interval(s), 50m 0s focused\nLast: (no description) at 09:55\n", buf.String())
}
