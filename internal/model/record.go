package model

import "time"

// CompletionRecord describes what was accomplished during one finished work
// interval. An empty Description means the prompt was skipped or auto-resolved.
type CompletionRecord struct {
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// Clone returns a deep copy so stored records never share the tag slice with
// the caller.
func (r CompletionRecord) Clone() CompletionRecord {
	c := r
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	} else {
		c.Tags = []string{}
	}
	return c
}

// Duration is the elapsed time between start and end.
func (r CompletionRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Skipped reports whether the record carries no description.
func (r CompletionRecord) Skipped() bool {
	return r.Description == ""
}
