package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func direct(fn func()) bool {
	fn()
	return true
}

type recorder struct {
	expiries []Expiry
	ticks    []time.Duration
}

func newTestScheduler(clock *fakeClock, limit time.Duration) (*Scheduler, *recorder) {
	rec := &recorder{}
	s := New(direct, limit,
		func(e Expiry) { rec.expiries = append(rec.expiries, e) },
		WithClock(clock.Now),
		WithCadence(time.Hour),
		WithTickObserver(func(d time.Duration) { rec.ticks = append(rec.ticks, d) }),
	)
	return s, rec
}

func TestNoExpiryBeforeFinish(t *testing.T) {
	clock := newFakeClock()
	s, rec := newTestScheduler(clock, -60*time.Second)

	s.Start(25 * time.Minute)
	clock.Advance(10 * time.Minute)
	s.Tick()

	assert.Empty(t, rec.expiries)
	assert.Equal(t, []time.Duration{15 * time.Minute}, rec.ticks)
	assert.Equal(t, 15*time.Minute, s.TimeLeft())
	assert.True(t, s.Active())
}

func TestElapsedJustAfterFinish(t *testing.T) {
	clock := newFakeClock()
	s, rec := newTestScheduler(clock, -60*time.Second)

	s.Start(time.Second)
	clock.Advance(2 * time.Second) // finish + 1s
	s.Tick()
	s.Tick()

	assert.Equal(t, []Expiry{Elapsed}, rec.expiries)
	assert.False(t, s.Active())
	assert.Equal(t, time.Duration(0), s.TimeLeft())
}

func TestOverrunBeyondLimit(t *testing.T) {
	clock := newFakeClock()
	s, rec := newTestScheduler(clock, -60*time.Second)

	s.Start(time.Second)
	clock.Advance(62 * time.Second) // 61s overdue
	s.Tick()
	s.Tick()

	assert.Equal(t, []Expiry{Overrun}, rec.expiries)
}

func TestOverrunBoundaryCountsAsElapsed(t *testing.T) {
	clock := newFakeClock()
	s, rec := newTestScheduler(clock, -60*time.Second)

	s.Start(time.Second)
	clock.Advance(61 * time.Second) // exactly 60s overdue
	s.Tick()

	assert.Equal(t, []Expiry{Elapsed}, rec.expiries)
}

func TestCancelDiscardsStaleTicks(t *testing.T) {
	clock := newFakeClock()
	s, rec := newTestScheduler(clock, -60*time.Second)

	s.Start(time.Second)
	stale := s.generation
	s.Cancel()

	clock.Advance(time.Minute)
	s.tick(stale)
	s.Tick()

	assert.Empty(t, rec.expiries)
	assert.Equal(t, []time.Duration{0}, rec.ticks)
	assert.False(t, s.Active())
}

func TestRestartDiscardsPreviousGeneration(t *testing.T) {
	clock := newFakeClock()
	s, rec := newTestScheduler(clock, -60*time.Second)

	s.Start(time.Second)
	old := s.generation
	s.Start(time.Hour)

	clock.Advance(2 * time.Second)
	s.tick(old)
	assert.Empty(t, rec.expiries)

	s.Tick()
	assert.Empty(t, rec.expiries)
	assert.Equal(t, time.Hour-2*time.Second, s.TimeLeft())
}

func TestTicksAreHandedToPoster(t *testing.T) {
	clock := newFakeClock()
	queue := make(chan func(), 16)
	post := func(fn func()) bool {
		queue <- fn
		return true
	}
	expired := make(chan Expiry, 1)
	s := New(post, -60*time.Second, func(e Expiry) { expired <- e },
		WithClock(clock.Now), WithCadence(5*time.Millisecond))

	s.Start(time.Second)
	clock.Advance(2 * time.Second)

	// Nothing happens until the poster runs the handed-off tick.
	select {
	case <-expired:
		t.Fatal("expiry raised outside the poster's context")
	case <-time.After(20 * time.Millisecond):
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case fn := <-queue:
			fn()
		case e := <-expired:
			assert.Equal(t, Elapsed, e)
			require.False(t, s.Active())
			return
		case <-deadline:
			t.Fatal("no tick delivered")
		}
	}
}

func TestExpiryString(t *testing.T) {
	assert.Equal(t, "elapsed", Elapsed.String())
	assert.Equal(t, "overrun", Overrun.String())
}
