// Package runloop provides the single goroutine that owns timer state. Ticks,
// user commands, and upload callbacks are all posted here and run one at a
// time in FIFO order.
package runloop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Run when Stop was called.
var ErrStopped = errors.New("runloop: stopped")

// Loop is a serialized task queue. The zero value is not usable; use New.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	closed  bool
	err     error
	running bool
}

// New returns an idle loop.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn to run on the loop goroutine. It never blocks and reports
// false once the loop has finished.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Fail stops the loop with err after the current task. Later tasks are
// discarded. Only the first failure is kept.
func (l *Loop) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.err = err
	l.queue = nil
	close(l.done)
}

// Stop ends the loop without an error.
func (l *Loop) Stop() {
	l.Fail(ErrStopped)
}

// Done is closed when the loop stops accepting tasks.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes posted tasks until ctx is cancelled or the loop fails. It
// returns ctx.Err(), ErrStopped, or the error passed to Fail.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("runloop: already running")
	}
	l.running = true
	l.mu.Unlock()

	for {
		if fn := l.next(); fn != nil {
			fn()
			continue
		}

		select {
		case <-ctx.Done():
			l.Fail(ctx.Err())
			return l.Err()
		case <-l.done:
			return l.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

// Err returns the reason the loop stopped, or nil while it is still open.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
