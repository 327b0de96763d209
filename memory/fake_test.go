/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

const settleWindow = 25 * time.Millisecond

// testLoop stands in for the hub goroutine: a LoopScheduler over a fake
// clock whose callbacks are queued and only run on the test goroutine.
type testLoop struct {
	clock *clockwork.FakeClock
	sched *LoopScheduler
	tasks chan func()
}

func newTestLoop(t *testing.T) *testLoop {
	t.Helper()

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	l := &testLoop{
		clock: clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)),
		tasks: make(chan func(), 1024),
	}
	l.sched = NewLoopScheduler(l.clock, func(fn func()) bool {
		select {
		case l.tasks <- fn:
			return true
		case <-done:
			return false
		}
	})

	return l
}

// drain runs whatever is already queued without waiting.
func (l *testLoop) drain() int {
	n := 0
	for {
		select {
		case fn := <-l.tasks:
			fn()
			n++
		default:
			return n
		}
	}
}

// settle runs queued callbacks until none has arrived for settleWindow.
func (l *testLoop) settle() int {
	n := 0
	for {
		select {
		case fn := <-l.tasks:
			fn()
			n++
		case <-time.After(settleWindow):
			return n
		}
	}
}

// advance moves the fake clock forward and lets fired callbacks run.
func (l *testLoop) advance(d time.Duration) {
	l.clock.Advance(d)
	l.settle()
}

// await runs queued callbacks until cond holds.
func (l *testLoop) await(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case fn := <-l.tasks:
			fn()
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
}

type event struct {
	kind  string
	index int
	text  string
	final bool
}

type completion struct {
	d       time.Duration
	elapsed string
}

type recordingPresenter struct {
	events   []event
	decks    int
	bursts   int
	finished []completion
}

func (p *recordingPresenter) DeckReset(cards []CardView) { p.decks++ }

func (p *recordingPresenter) CardFlipped(c Card) {
	p.events = append(p.events, event{kind: "flipped", index: c.Index})
}

func (p *recordingPresenter) CardHidden(c Card) {
	p.events = append(p.events, event{kind: "hidden", index: c.Index})
}

func (p *recordingPresenter) CardMatched(c Card) {
	p.events = append(p.events, event{kind: "matched", index: c.Index})
}

func (p *recordingPresenter) TimerDisplay(text string, final bool) {
	p.events = append(p.events, event{kind: "timer", text: text, final: final})
}

func (p *recordingPresenter) Sparkle(c Card, b Burst) {
	p.bursts++
	p.events = append(p.events, event{kind: "sparkle", index: c.Index})
}

func (p *recordingPresenter) Completion(d time.Duration, elapsed string) {
	p.finished = append(p.finished, completion{d: d, elapsed: elapsed})
}

func (p *recordingPresenter) count(kind string) int {
	n := 0
	for _, e := range p.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (p *recordingPresenter) lastTimer() event {
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].kind == "timer" {
			return p.events[i]
		}
	}
	return event{}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// fixedRand replays a list of IntN results; Float64 always returns 0.5.
type fixedRand struct {
	picks []int
}

func (r *fixedRand) IntN(n int) int {
	if len(r.picks) == 0 {
		return n - 1
	}
	v := r.picks[0]
	r.picks = r.picks[1:]
	return v % n
}

func (r *fixedRand) Float64() float64 { return 0.5 }

func ptr(i int) *int { return &i }
