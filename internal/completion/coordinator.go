// Package completion turns finished work intervals into completion records.
// Each finished interval opens a prompt, and every prompt resolves to exactly
// one record that is journaled locally and, when possible, uploaded.
package completion

import (
	"context"
	"crypto/rand"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Tiliavir/trivial-pomodoro/internal/config"
	"github.com/Tiliavir/trivial-pomodoro/internal/model"
)

// Handle identifies one prompt.
type Handle string

// OutcomeKind is how the user (or the timer) resolved a prompt.
type OutcomeKind int

const (
	Submitted OutcomeKind = iota
	Skipped
	Dismissed
)

func (k OutcomeKind) String() string {
	switch k {
	case Submitted:
		return "submitted"
	case Skipped:
		return "skipped"
	case Dismissed:
		return "dismissed"
	}
	return "unknown"
}

// Outcome is the resolution of a prompt.
type Outcome struct {
	Kind        OutcomeKind
	Description string
	Tags        []string
}

// Submit returns a Submitted outcome.
func Submit(description string, tags ...string) Outcome {
	return Outcome{Kind: Submitted, Description: description, Tags: tags}
}

// Skip returns a Skipped outcome.
func Skip() Outcome { return Outcome{Kind: Skipped} }

// Dismiss returns a Dismissed outcome, used when the prompt was closed
// without an action.
func Dismiss() Outcome { return Outcome{Kind: Dismissed} }

// Prompt is what the UI is asked to show.
type Prompt struct {
	Handle   Handle
	Interval model.Interval
	// EndTime is the candidate end time: the moment the work interval ended.
	EndTime time.Time
}

// Prompter is the UI surface that shows prompts and holds their drafts.
type Prompter interface {
	Present(p Prompt)
	// Draft returns whatever the user has typed so far for h.
	Draft(h Handle) (description string, tags []string)
	Close(h Handle)
}

// Notifier receives informational, non-blocking messages.
type Notifier interface {
	Inform(message string)
}

// Journal is the local backstop.
type Journal interface {
	Append(record model.CompletionRecord) error
}

// Uploader sends a record without blocking and reports back through done.
type Uploader interface {
	UploadAsync(ctx context.Context, record model.CompletionRecord, remote config.RemoteConfig, done func(error))
}

// Stats counts what the coordinator has done since it was created.
type Stats struct {
	Resolved        int
	Uploaded        int
	UploadFailures  int
	JournalFailures int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithClock overrides the time source used for handle generation.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithUploader enables remote delivery.
func WithUploader(u Uploader) Option {
	return func(c *Coordinator) {
		c.uploader = u
	}
}

// WithPrompter sets the UI surface.
func WithPrompter(p Prompter) Option {
	return func(c *Coordinator) {
		c.prompter = p
	}
}

// WithNotifier sets the receiver of informational messages.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithContext sets the context uploads run under.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) {
		c.ctx = ctx
	}
}

type pending struct {
	prompt Prompt
}

// Coordinator tracks open prompts and resolves each exactly once. Several
// prompts may be open at the same time.
//
// UI calls and upload results are handed to post so they run in the
// coordination context; the pending set itself is guarded by a mutex.
type Coordinator struct {
	post     func(func()) bool
	journal  Journal
	remote   config.RemoteConfig
	uploader Uploader
	prompter Prompter
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time
	ctx      context.Context

	mu      sync.Mutex
	entropy io.Reader
	open    map[Handle]pending
	order   []Handle
	stats   Stats
}

// New returns a Coordinator that journals through j and reads remote for
// upload decisions.
func New(post func(func()) bool, j Journal, remote config.RemoteConfig, opts ...Option) *Coordinator {
	c := &Coordinator{
		post:     post,
		journal:  j,
		remote:   remote,
		prompter: nopPrompter{},
		notifier: nopNotifier{},
		logger:   log.New(os.Stderr, "tpom: ", log.LstdFlags),
		now:      time.Now,
		ctx:      context.Background(),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		open:     make(map[Handle]pending),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WorkFinished opens a prompt for interval, which ended at end. The UI is
// asked to present it asynchronously.
func (c *Coordinator) WorkFinished(interval model.Interval, end time.Time) Handle {
	c.mu.Lock()
	h := Handle(ulid.MustNew(ulid.Timestamp(c.now()), c.entropy).String())
	p := Prompt{Handle: h, Interval: interval, EndTime: end}
	c.open[h] = pending{prompt: p}
	c.order = append(c.order, h)
	pendingGauge.Set(float64(len(c.order)))
	c.mu.Unlock()

	c.post(func() { c.prompter.Present(p) })
	return h
}

// Resolve settles h with outcome. It reports false, and does nothing, when h
// is unknown or already resolved.
func (c *Coordinator) Resolve(h Handle, outcome Outcome) bool {
	return c.resolve(h, outcome, outcome.Kind.String())
}

// ResolvePending force-submits every open prompt, oldest first, with the
// draft the UI currently holds. It returns the number of prompts resolved.
func (c *Coordinator) ResolvePending() int {
	n := 0
	for _, h := range c.Pending() {
		desc, tags := c.prompter.Draft(h)
		if c.resolve(h, Submit(desc, tags...), "auto") {
			n++
		}
	}
	return n
}

// Pending returns the handles of open prompts, oldest first.
func (c *Coordinator) Pending() []Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Handle, len(c.order))
	copy(out, c.order)
	return out
}

// Stats returns a snapshot of the counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Coordinator) resolve(h Handle, outcome Outcome, label string) bool {
	c.mu.Lock()
	p, ok := c.open[h]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.open, h)
	for i, o := range c.order {
		if o == h {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.stats.Resolved++
	pendingGauge.Set(float64(len(c.order)))
	c.mu.Unlock()

	resolvedCounter.WithLabelValues(label).Inc()
	c.post(func() { c.prompter.Close(h) })

	record := model.CompletionRecord{
		StartTime: p.prompt.Interval.Start,
		EndTime:   p.prompt.EndTime,
	}
	if outcome.Kind == Submitted {
		record.Description = outcome.Description
		record.Tags = outcome.Tags
	}
	record = record.Clone()

	// Durability first; upload is best effort on top of it.
	if err := c.journal.Append(record); err != nil {
		c.mu.Lock()
		c.stats.JournalFailures++
		c.mu.Unlock()
		c.logger.Printf("journal append failed: %v", err)
		c.notifier.Inform("Could not save the record locally: " + err.Error())
	}

	c.maybeUpload(record)
	return true
}

// maybeUpload sends record when an endpoint is configured and the record
// carries a description. An endpoint with incomplete credentials is still
// attempted so the client reports the configuration error.
func (c *Coordinator) maybeUpload(record model.CompletionRecord) {
	if c.uploader == nil || !c.remote.Enabled() || record.Skipped() {
		return
	}
	c.uploader.UploadAsync(c.ctx, record, c.remote, func(err error) {
		c.post(func() { c.uploadDone(err) })
	})
}

func (c *Coordinator) uploadDone(err error) {
	c.mu.Lock()
	if err == nil {
		c.stats.Uploaded++
	} else {
		c.stats.UploadFailures++
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Printf("upload failed: %v", err)
		c.notifier.Inform("Upload failed, the record is kept locally: " + err.Error())
	}
}

type nopPrompter struct{}

func (nopPrompter) Present(Prompt)                  {}
func (nopPrompter) Draft(Handle) (string, []string) { return "", nil }
func (nopPrompter) Close(Handle)                    {}

type nopNotifier struct{}

func (nopNotifier) Inform(string) {}
