// Package timer is the idle/work/rest state machine.
//
// Events are routed through an explicit transition table. A matching
// transition switches the state and then runs a fixed, ordered list of
// handlers; events raised while handlers run are queued and dispatched only
// after the current transition completes.
package timer

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Tiliavir/trivial-pomodoro/internal/completion"
	"github.com/Tiliavir/trivial-pomodoro/internal/config"
	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/scheduler"
)

// State of the machine.
type State int

const (
	Idle State = iota
	Work
	Rest
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Work:
		return "work"
	case Rest:
		return "rest"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event drives transitions.
type Event int

const (
	StartStop Event = iota
	TimerFired
	SkipRest
)

func (e Event) String() string {
	switch e {
	case StartStop:
		return "start_stop"
	case TimerFired:
		return "timer_fired"
	case SkipRest:
		return "skip_rest"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Sounds passed to Notifier.Play.
const (
	SoundRestStarted  = "rest_started"
	SoundRestFinished = "rest_finished"
)

// ProtocolViolation reports an event that has no transition in the current
// state. It is fatal: the state is left unchanged and the owner is expected
// to halt.
type ProtocolViolation struct {
	State State
	Event Event
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation: no transition for event %s in state %s", e.Event, e.State)
}

// Countdown is the interval scheduler as seen by the machine.
type Countdown interface {
	Start(d time.Duration)
	Cancel()
}

// Completer opens and force-resolves completion prompts.
type Completer interface {
	WorkFinished(interval model.Interval, end time.Time) completion.Handle
	ResolvePending() int
}

// Notifier is the one-way sound and notification surface.
type Notifier interface {
	Play(sound string)
	Notify(title, body, category string)
}

// Settings are the interval lengths and set behaviour.
type Settings struct {
	Work           time.Duration
	ShortRest      time.Duration
	LongRest       time.Duration
	IntervalsInSet int
	StopAfterBreak bool
}

// SettingsFrom converts the timer configuration.
func SettingsFrom(tc config.TimerConfig) Settings {
	return Settings{
		Work:           tc.WorkDuration(),
		ShortRest:      tc.ShortRestDuration(),
		LongRest:       tc.LongRestDuration(),
		IntervalsInSet: tc.WorkIntervalsInSet,
		StopAfterBreak: tc.StopAfterBreak,
	}
}

// Change describes one fired transition.
type Change struct {
	From  State
	Event Event
	To    State
}

type transition struct {
	from  State
	event Event
	guard func(m *Machine) bool
	to    State
}

func stopAfterBreak(m *Machine) bool     { return m.settings.StopAfterBreak }
func continueAfterBreak(m *Machine) bool { return !m.settings.StopAfterBreak }

var table = []transition{
	{from: Idle, event: StartStop, to: Work},
	{from: Work, event: StartStop, to: Idle},
	{from: Rest, event: StartStop, to: Idle},
	{from: Work, event: TimerFired, to: Rest},
	{from: Rest, event: TimerFired, guard: stopAfterBreak, to: Idle},
	{from: Rest, event: TimerFired, guard: continueAfterBreak, to: Work},
	{from: Rest, event: SkipRest, to: Work},
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for the transition log.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithClock overrides the time source for interval timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithNotifier sets the sound and notification surface.
func WithNotifier(n Notifier) Option {
	return func(m *Machine) {
		m.notifier = n
	}
}

// WithFailureHandler sets what happens to a protocol violation raised from
// an expiry, where there is no caller to return it to. The default panics.
func WithFailureHandler(fn func(error)) Option {
	return func(m *Machine) {
		m.onFailure = fn
	}
}

// WithObserver registers fn to be called after every transition's handlers.
func WithObserver(fn func(Change)) Option {
	return func(m *Machine) {
		m.observers = append(m.observers, fn)
	}
}

// Machine owns the timer state. It is not safe for concurrent use: every
// method must be called from the coordination context.
type Machine struct {
	settings  Settings
	countdown Countdown
	completer Completer
	notifier  Notifier
	logger    *log.Logger
	now       func() time.Time
	onFailure func(error)
	observers []func(Change)

	state       State
	consecutive int
	current     model.Interval
	nextRest    model.IntervalKind

	queue       []Event
	dispatching bool
}

// New returns a machine in Idle.
func New(settings Settings, countdown Countdown, completer Completer, opts ...Option) *Machine {
	m := &Machine{
		settings:  settings,
		countdown: countdown,
		completer: completer,
		notifier:  nopNotifier{},
		logger:    log.New(os.Stderr, "tpom: ", log.LstdFlags),
		now:       time.Now,
		onFailure: func(err error) { panic(err) },
		state:     Idle,
	}
	for _, opt := range opts {
		opt(m)
	}
	stateGauge.WithLabelValues(Idle.String()).Set(1)
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// ConsecutiveWorkIntervals returns the number of work intervals completed
// since the last long rest or idle.
func (m *Machine) ConsecutiveWorkIntervals() int { return m.consecutive }

// Current returns the running interval, or a zero Interval when idle.
func (m *Machine) Current() model.Interval { return m.current }

// Fire delivers ev. When called from inside a handler the event is queued
// and Fire returns nil; it is dispatched once the current transition is done.
// A *ProtocolViolation is returned for an event with no transition, and any
// events still queued behind it are dropped.
func (m *Machine) Fire(ev Event) error {
	m.queue = append(m.queue, ev)
	if m.dispatching {
		return nil
	}
	m.dispatching = true
	defer func() { m.dispatching = false }()

	for len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if err := m.step(next); err != nil {
			m.queue = nil
			return err
		}
	}
	return nil
}

// Expired is the scheduler's expiry callback. An overrun is an implicit stop
// and is logged apart from a user stop.
func (m *Machine) Expired(e scheduler.Expiry) {
	ev := TimerFired
	if e == scheduler.Overrun {
		m.logger.Printf("overrun state=%s: countdown noticed too late, stopping", m.state)
		overrunsCounter.Inc()
		ev = StartStop
	}
	if err := m.Fire(ev); err != nil {
		m.onFailure(err)
	}
}

func (m *Machine) step(ev Event) error {
	for _, tr := range table {
		if tr.from != m.state || tr.event != ev {
			continue
		}
		if tr.guard != nil && !tr.guard(m) {
			continue
		}
		c := Change{From: m.state, Event: ev, To: tr.to}
		m.state = tr.to
		for _, h := range handlers {
			if h.match(c) {
				h.run(m, c)
			}
		}
		for _, fn := range m.observers {
			fn(c)
		}
		return nil
	}
	violationsCounter.Inc()
	return &ProtocolViolation{State: m.state, Event: ev}
}

type nopNotifier struct{}

func (nopNotifier) Play(string)                   {}
func (nopNotifier) Notify(string, string, string) {}
