/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGame deals keys without shuffling, so keys {A, B} lay out as
// [A B A B].
func newTestGame(t *testing.T, keys ...string) (*Game, *testLoop, *recordingPresenter) {
	t.Helper()

	l := newTestLoop(t)
	p := &recordingPresenter{}
	g := New(keys, l.sched, p, Options{Rand: &fixedRand{}})

	require.Len(t, g.Deck(), 2*len(keys))

	return g, l, p
}

func states(g *Game) []CardState {
	deck := g.Deck()
	out := make([]CardState, len(deck))
	for i, c := range deck {
		out[i] = c.State
	}
	return out
}

func TestUnshuffledLayout(t *testing.T) {
	g, _, p := newTestGame(t, "A", "B")

	keys := []string{}
	for _, c := range g.Deck() {
		keys = append(keys, c.Key)
	}

	assert.Equal(t, []string{"A", "B", "A", "B"}, keys)
	assert.Equal(t, 1, p.decks)
	assert.Equal(t, Idle, g.Phase())
	assert.Equal(t, "00:00", g.Clock().Text())
}

func TestMismatchThenGlobalClick(t *testing.T) {
	g, l, p := newTestGame(t, "A", "B")

	assert.Equal(t, Selected, g.Activate(ptr(0)))
	assert.Equal(t, OneSelected, g.Phase())
	assert.True(t, g.Clock().Started())

	assert.Equal(t, Mismatched, g.Activate(ptr(1)))
	assert.Equal(t, MismatchWait, g.Phase())

	turn := g.Turn()
	assert.True(t, turn.Locked)
	assert.True(t, turn.AwaitingDismiss)
	assert.Equal(t, []CardState{Flipped, Flipped, Hidden, Hidden}, states(g))

	assert.Equal(t, Dismissed, g.Activate(nil))

	turn = g.Turn()
	assert.False(t, turn.Locked)
	assert.False(t, turn.AwaitingDismiss)
	assert.Nil(t, turn.First)
	assert.Nil(t, turn.Second)
	assert.Equal(t, []CardState{Hidden, Hidden, Hidden, Hidden}, states(g))
	assert.Equal(t, Idle, g.Phase())

	assert.Equal(t, 2, p.count("hidden"))

	// the dismissal timer was cancelled, the clock keeps going
	l.advance(10 * time.Second)
	assert.Equal(t, 2, p.count("hidden"))
	assert.Equal(t, Idle, g.Phase())
	assert.True(t, g.Clock().Running())
	assert.Equal(t, "00:10", g.Clock().Text())
}

func TestMismatchAutoDismiss(t *testing.T) {
	g, l, p := newTestGame(t, "A", "B")

	g.Flip(0)
	g.Flip(1)

	l.advance(2999 * time.Millisecond)
	assert.Equal(t, MismatchWait, g.Phase())

	l.clock.Advance(time.Millisecond)
	l.await(t, func() bool { return g.Phase() == Idle })
	assert.Equal(t, 2, p.count("hidden"))
	assert.Equal(t, []CardState{Hidden, Hidden, Hidden, Hidden}, states(g))
	assert.False(t, g.Turn().Locked)
}

func TestCustomMismatchDelay(t *testing.T) {
	l := newTestLoop(t)
	g := New([]string{"A", "B"}, l.sched, nil, Options{Rand: &fixedRand{}, MismatchDelay: 500 * time.Millisecond})

	g.Flip(0)
	g.Flip(1)
	l.advance(499 * time.Millisecond)
	assert.Equal(t, MismatchWait, g.Phase())

	l.clock.Advance(time.Millisecond)
	l.await(t, func() bool { return g.Phase() == Idle })
}

func TestMatchOnLargerDeck(t *testing.T) {
	g, _, p := newTestGame(t, "A", "B")

	assert.Equal(t, Selected, g.Flip(0))
	assert.Equal(t, Paired, g.Flip(2))

	turn := g.Turn()
	assert.Equal(t, 1, turn.MatchedPairs)
	assert.Nil(t, turn.First)
	assert.False(t, turn.Locked)
	assert.Equal(t, []CardState{Matched, Hidden, Matched, Hidden}, states(g))
	assert.Equal(t, 2, p.bursts)
	assert.Empty(t, p.finished)
	assert.True(t, g.Clock().Running())
}

func TestSinglePairCompletes(t *testing.T) {
	g, l, p := newTestGame(t, "A")

	g.Flip(0)
	l.advance(4200 * time.Millisecond)

	assert.Equal(t, Completed, g.Flip(1))
	assert.True(t, g.Done())
	assert.Equal(t, Complete, g.Phase())
	assert.False(t, g.Clock().Running())
	assert.Equal(t, []completion{{d: DefaultCompletionDuration, elapsed: "00:04"}}, p.finished)
	assert.Equal(t, event{kind: "timer", text: "00:04", final: true}, p.lastTimer())

	// stays stopped
	n := len(p.events)
	l.advance(time.Hour)
	assert.Len(t, p.events, n)
	assert.Equal(t, Ignored, g.Activate(ptr(0)))
	assert.Equal(t, "00:04", g.Clock().Text())
	assert.Equal(t, 1, g.Turn().MatchedPairs)
}

func TestFlipIgnoredDuringMismatch(t *testing.T) {
	g, _, _ := newTestGame(t, "A", "B")

	g.Flip(0)
	g.Flip(1)

	before := states(g)
	assert.Equal(t, Ignored, g.Flip(3))
	assert.Equal(t, before, states(g))

	// an activation on a card only dismisses
	assert.Equal(t, Dismissed, g.Activate(ptr(3)))
	assert.Equal(t, Hidden, g.Deck()[3].State)

	assert.Equal(t, Selected, g.Activate(ptr(3)))
}

func TestFlipIgnoresRevealedAndOutOfRange(t *testing.T) {
	g, _, _ := newTestGame(t, "A", "B")

	assert.Equal(t, Ignored, g.Flip(-1))
	assert.Equal(t, Ignored, g.Flip(4))
	assert.False(t, g.Clock().Started())

	g.Flip(0)
	assert.Equal(t, Ignored, g.Flip(0))
	assert.Equal(t, OneSelected, g.Phase())

	g.Flip(2)
	assert.Equal(t, Ignored, g.Flip(2))
	assert.Equal(t, 1, g.Turn().MatchedPairs)
}

func TestClockStartsOnRevealedCardClick(t *testing.T) {
	g, _, _ := newTestGame(t, "A", "B")

	g.Flip(0)
	g.Flip(2)
	g.Clock().Reset()

	assert.Equal(t, Ignored, g.Flip(0))
	assert.True(t, g.Clock().Started())
}

func TestDismissIsIdempotent(t *testing.T) {
	g, l, p := newTestGame(t, "A", "B")

	n := len(p.events)
	assert.False(t, g.Dismiss(ByUser))
	assert.False(t, g.Dismiss(ByTimer))
	assert.Len(t, p.events, n)

	g.Flip(0)
	g.Flip(1)

	assert.True(t, g.Dismiss(ByUser))
	n = len(p.events)
	assert.False(t, g.Dismiss(ByUser))
	assert.Equal(t, n, len(p.events))

	// the stale timer never fires
	g.Flip(0)
	g.Flip(1)
	l.advance(2 * time.Second)
	assert.True(t, g.Dismiss(ByUser))
	g.Flip(0)
	g.Flip(1)
	l.advance(1500 * time.Millisecond)
	assert.Equal(t, MismatchWait, g.Phase())
}

func TestActivateNilWhileIdle(t *testing.T) {
	g, _, p := newTestGame(t, "A", "B")

	n := len(p.events)
	assert.Equal(t, Ignored, g.Activate(nil))
	assert.Len(t, p.events, n)
	assert.False(t, g.Clock().Started())
}

func TestNewGameResetsEverything(t *testing.T) {
	g, l, p := newTestGame(t, "A", "B")

	g.Flip(0)
	g.Flip(2)
	g.Flip(1)
	g.Flip(0)
	g.Flip(3)
	l.advance(time.Second)

	g.NewGame([]string{"X", "Y", "Z"})

	assert.Len(t, g.Deck(), 6)
	assert.Equal(t, 3, g.TotalPairs())
	assert.Equal(t, Idle, g.Phase())
	assert.Equal(t, TurnState{}, g.Turn())
	assert.False(t, g.Clock().Started())
	assert.Equal(t, "00:00", g.Clock().Text())
	assert.Equal(t, 2, p.decks)

	for _, c := range g.Deck() {
		assert.Equal(t, Hidden, c.State)
	}

	// neither the clock nor the old dismissal survives
	n := len(p.events)
	l.advance(10 * time.Second)
	assert.Len(t, p.events, n)
	assert.False(t, g.Clock().Started())
}

func TestNewGameDuringMismatchCancelsTimer(t *testing.T) {
	g, l, p := newTestGame(t, "A", "B")

	g.Flip(0)
	g.Flip(1)
	g.Restart()

	n := len(p.events)
	l.advance(10 * time.Second)

	assert.Equal(t, n, len(p.events))
	assert.Equal(t, []string{"A", "B"}, g.Keys())
}

func TestSnapshot(t *testing.T) {
	g, _, _ := newTestGame(t, "A", "B")

	g.Flip(0)
	g.Flip(1)

	snap := g.Snapshot()
	assert.Equal(t, "mismatch_wait", snap.Phase)
	assert.True(t, snap.Locked)
	assert.True(t, snap.AwaitingDismiss)
	assert.Equal(t, 2, snap.TotalPairs)
	assert.Equal(t, "00:00", snap.Timer)
	assert.False(t, snap.TimerFinal)
	assert.Equal(t, []CardView{
		{Index: 0, Key: "A", State: "flipped"},
		{Index: 1, Key: "B", State: "flipped"},
		{Index: 2, State: "hidden"},
		{Index: 3, State: "hidden"},
	}, snap.Cards)
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		l := newTestLoop(t)
		r := seeded(seed)
		g := New(keysN(6), l.sched, nil, Options{Rand: r})

		for step := 0; step < 2000 && !g.Done(); step++ {
			switch r.IntN(10) {
			case 0:
				g.Activate(nil)
			case 1:
				l.clock.Advance(time.Duration(r.IntN(4000)) * time.Millisecond)
			default:
				g.Activate(ptr(r.IntN(len(g.Deck()))))
			}
			l.drain()

			deck := g.Deck()
			turn := g.Turn()

			require.LessOrEqual(t, deck.Count(Flipped), 2)
			require.LessOrEqual(t, turn.MatchedPairs, g.TotalPairs())
			require.Equal(t, 2*turn.MatchedPairs, deck.Count(Matched))
			require.Equal(t, turn.Locked, turn.AwaitingDismiss)
		}

		require.True(t, g.Done(), "seed %d did not finish", seed)
		require.False(t, g.Clock().Running())

		text := g.Clock().Text()
		l.advance(time.Hour)
		g.Activate(ptr(0))
		assert.Equal(t, text, g.Clock().Text())
	}
}

func TestBurst(t *testing.T) {
	b := NewBurst(&fixedRand{picks: []int{0}})
	assert.Len(t, b.Particles, 2)
	assert.Equal(t, Particle{Left: 50, Top: 50, DX: 0, DY: 0}, b.Particles[0])

	for seed := uint64(0); seed < 20; seed++ {
		b := NewBurst(seeded(seed))
		assert.GreaterOrEqual(t, len(b.Particles), 2)
		assert.LessOrEqual(t, len(b.Particles), 3)
		for _, p := range b.Particles {
			assert.InDelta(t, 50, p.Left, 5)
			assert.InDelta(t, 50, p.Top, 5)
			assert.LessOrEqual(t, p.DX, 11)
			assert.GreaterOrEqual(t, p.DX, -11)
		}
	}
}
