// Package scheduler drives a countdown with a fixed tick cadence and decides
// whether an expired countdown finished normally or was overrun, typically
// because the machine slept through its end.
package scheduler

import (
	"sync"
	"time"
)

// Expiry tells how a countdown ended.
type Expiry int

const (
	// Elapsed means the countdown reached zero within the overrun limit.
	Elapsed Expiry = iota
	// Overrun means the countdown was noticed too late to count.
	Overrun
)

func (e Expiry) String() string {
	if e == Overrun {
		return "overrun"
	}
	return "elapsed"
}

// DefaultCadence is the tick interval.
const DefaultCadence = time.Second

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithCadence overrides the tick interval.
func WithCadence(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.cadence = d
		}
	}
}

// WithTickObserver registers fn to receive the remaining time on every tick
// and once more (with zero) after a cancel or expiry.
func WithTickObserver(fn func(remaining time.Duration)) Option {
	return func(s *Scheduler) {
		s.onTick = fn
	}
}

// Scheduler counts down one interval at a time. Tick production happens on
// a private goroutine, but every tick is handed to post and evaluated there,
// so onExpire and the tick observer always run in the poster's context.
type Scheduler struct {
	post         func(func()) bool
	now          func() time.Time
	cadence      time.Duration
	overrunLimit time.Duration
	onExpire     func(Expiry)
	onTick       func(time.Duration)

	mu         sync.Mutex
	generation uint64
	finish     time.Time
	active     bool
	stop       chan struct{}
}

// New returns an idle scheduler. overrunLimit must be negative: an expiry
// noticed more than |overrunLimit| late is reported as Overrun.
func New(post func(func()) bool, overrunLimit time.Duration, onExpire func(Expiry), opts ...Option) *Scheduler {
	s := &Scheduler{
		post:         post,
		now:          time.Now,
		cadence:      DefaultCadence,
		overrunLimit: overrunLimit,
		onExpire:     onExpire,
		onTick:       func(time.Duration) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a countdown of d from now, replacing any running countdown.
func (s *Scheduler) Start(d time.Duration) {
	s.mu.Lock()
	s.halt()
	s.generation++
	gen := s.generation
	s.finish = s.now().Add(d)
	s.active = true
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go s.run(gen, stop)
}

// Cancel stops ticking immediately. Ticks already queued are discarded, and
// the observer receives a final zero so displays settle.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	s.halt()
	s.generation++
	s.finish = time.Time{}
	s.mu.Unlock()

	s.onTick(0)
}

// halt must be called with mu held.
func (s *Scheduler) halt() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.active = false
}

// Active reports whether a countdown is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// TimeLeft returns the remaining time, or zero when idle or overdue.
func (s *Scheduler) TimeLeft() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0
	}
	if r := s.finish.Sub(s.now()); r > 0 {
		return r
	}
	return 0
}

// Tick evaluates the current countdown immediately, e.g. after a wake from
// sleep. It must be called from the poster's context.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	s.tick(gen)
}

func (s *Scheduler) run(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.post(func() { s.tick(gen) }) {
				return
			}
		}
	}
}

// tick is the handed-off tick body. A tick from an older generation is stale
// and dropped.
func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.active {
		s.mu.Unlock()
		return
	}
	remaining := s.finish.Sub(s.now())
	if remaining > 0 {
		s.mu.Unlock()
		s.onTick(remaining)
		return
	}

	// Expired: stop before notifying so exactly one expiry is raised per
	// countdown.
	s.halt()
	s.generation++
	s.mu.Unlock()

	s.onTick(0)
	if remaining < s.overrunLimit {
		s.onExpire(Overrun)
		return
	}
	s.onExpire(Elapsed)
}
