package model

import "time"

// IntervalKind identifies the phase a countdown belongs to.
type IntervalKind string

const (
	KindWork      IntervalKind = "work"
	KindShortRest IntervalKind = "short_rest"
	KindLongRest  IntervalKind = "long_rest"
)

// IsRest reports whether k is one of the rest kinds.
func (k IntervalKind) IsRest() bool {
	return k == KindShortRest || k == KindLongRest
}

// Interval is one timed phase. It is never mutated after creation; the next
// transition replaces it.
type Interval struct {
	Kind                   IntervalKind `json:"kind"`
	Start                  time.Time    `json:"start"`
	PlannedDurationSeconds int64        `json:"planned_duration_seconds"`
}

// NewInterval creates an interval of the given kind starting at start.
func NewInterval(kind IntervalKind, start time.Time, planned time.Duration) Interval {
	return Interval{
		Kind:                   kind,
		Start:                  start,
		PlannedDurationSeconds: int64(planned / time.Second),
	}
}

// PlannedDuration returns the planned length as a time.Duration.
func (i Interval) PlannedDuration() time.Duration {
	return time.Duration(i.PlannedDurationSeconds) * time.Second
}

// PlannedEnd is the wall-clock time the interval is scheduled to finish.
func (i Interval) PlannedEnd() time.Time {
	return i.Start.Add(i.PlannedDuration())
}

// IsZero reports whether no interval has been set.
func (i Interval) IsZero() bool {
	return i.Start.IsZero()
}
