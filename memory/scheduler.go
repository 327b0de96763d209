/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cancel stops a scheduled task. It is safe to call more than once.
type Cancel func()

// Scheduler runs deferred and periodic callbacks. Implementations must
// invoke callbacks on the goroutine that owns the Game, never concurrently
// with other Game calls, and must not run a callback after its Cancel has
// returned.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Cancel
	Every(d time.Duration, fn func()) Cancel
}

// LoopScheduler backs a Scheduler with a clockwork.Clock. Expired timers do
// not call back directly; they hand a closure to post, which is expected to
// queue it onto the owning event loop. post reports false once the loop is
// gone, after which periodic tasks stop on their own.
type LoopScheduler struct {
	clock clockwork.Clock
	post  func(func()) bool
}

func NewLoopScheduler(clock clockwork.Clock, post func(func()) bool) *LoopScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &LoopScheduler{
		clock: clock,
		post:  post,
	}
}

func (s *LoopScheduler) Now() time.Time {
	return s.clock.Now()
}

// guard wraps fn so that it does nothing once cancelled is set, even if it
// was already queued.
func guard(cancelled *atomic.Bool, fn func()) func() {
	return func() {
		if cancelled.Load() {
			return
		}
		fn()
	}
}

func (s *LoopScheduler) After(d time.Duration, fn func()) Cancel {
	var cancelled atomic.Bool

	timer := s.clock.AfterFunc(d, func() {
		s.post(guard(&cancelled, fn))
	})

	return func() {
		cancelled.Store(true)
		timer.Stop()
	}
}

func (s *LoopScheduler) Every(d time.Duration, fn func()) Cancel {
	var cancelled atomic.Bool
	stop := make(chan struct{})

	ticker := s.clock.NewTicker(d)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				if !s.post(guard(&cancelled, fn)) {
					return
				}
			}
		}
	}()

	var once sync.Once

	return func() {
		cancelled.Store(true)
		once.Do(func() { close(stop) })
	}
}
