/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"time"
)

const (
	DefaultMismatchDelay      = 3 * time.Second
	DefaultCompletionDuration = 2800 * time.Millisecond
	DefaultTickInterval       = 100 * time.Millisecond
)

// Phase is the externally visible position of the turn state machine.
type Phase int

const (
	Idle Phase = iota
	OneSelected
	MismatchWait
	Complete
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case OneSelected:
		return "one_selected"
	case MismatchWait:
		return "mismatch_wait"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Outcome describes what a single activation did.
type Outcome int

const (
	Ignored Outcome = iota
	Selected
	Paired
	Mismatched
	Completed
	Dismissed
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Selected:
		return "selected"
	case Paired:
		return "paired"
	case Mismatched:
		return "mismatched"
	case Completed:
		return "completed"
	case Dismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// DismissOrigin records what closed a mismatch window.
type DismissOrigin int

const (
	ByTimer DismissOrigin = iota
	ByUser
)

func (o DismissOrigin) String() string {
	if o == ByUser {
		return "user"
	}
	return "timer"
}

// TurnState is the selection and lock state of the current turn.
// Locked and AwaitingDismiss are set together for the whole mismatch window.
type TurnState struct {
	First           *int `json:"first,omitempty"`
	Second          *int `json:"second,omitempty"`
	Locked          bool `json:"locked"`
	MatchedPairs    int  `json:"matched_pairs"`
	AwaitingDismiss bool `json:"awaiting_dismiss"`
}

type Options struct {
	MismatchDelay      time.Duration
	CompletionDuration time.Duration
	TickInterval       time.Duration
	Rand               Rand
}

func (o Options) withDefaults() Options {
	if o.MismatchDelay <= 0 {
		o.MismatchDelay = DefaultMismatchDelay
	}
	if o.CompletionDuration <= 0 {
		o.CompletionDuration = DefaultCompletionDuration
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	o.Rand = orDefault(o.Rand)
	return o
}

// Game is one play session: the deck, the turn state, the clock and the
// pending mismatch dismissal. It is not safe for concurrent use; callers
// serialize all calls, including scheduler callbacks, on one goroutine.
type Game struct {
	opts  Options
	sched Scheduler
	view  Presenter

	keys  []string
	deck  Deck
	turn  TurnState
	clock *Clock

	cancelDismissal Cancel
}

// New creates a game and deals the first deck.
func New(keys []string, sched Scheduler, view Presenter, opts Options) *Game {
	if view == nil {
		view = NopPresenter{}
	}

	g := &Game{
		opts:  opts.withDefaults(),
		sched: sched,
		view:  view,
	}
	g.clock = NewClock(sched, g.opts.TickInterval, view.TimerDisplay)

	g.NewGame(keys)

	return g
}

// NewGame deals a fresh deck and discards everything about the previous
// one, including any pending dismissal and clock tick.
func (g *Game) NewGame(keys []string) {
	g.disarmDismissal()

	g.keys = append([]string(nil), keys...)
	g.deck = BuildDeck(g.keys, g.opts.Rand)
	g.turn = TurnState{}

	g.view.DeckReset(g.deck.Views())
	g.clock.Reset()
}

// Restart deals a new deck from the current pairing keys.
func (g *Game) Restart() {
	g.NewGame(g.keys)
}

// Activate handles one pointer activation. target is the card index that
// was hit, or nil for a click elsewhere on the surface. While a mismatch
// is displayed the activation only dismisses it and target is discarded.
func (g *Game) Activate(target *int) Outcome {
	if g.Dismiss(ByUser) {
		return Dismissed
	}

	if target == nil {
		return Ignored
	}

	return g.Flip(*target)
}

// Flip turns over the card at index.
func (g *Game) Flip(index int) Outcome {
	if g.turn.AwaitingDismiss || g.turn.Locked {
		return Ignored
	}
	if !g.deck.valid(index) {
		return Ignored
	}

	g.clock.Start()

	card := &g.deck[index]
	if card.State != Hidden {
		return Ignored
	}

	card.State = Flipped
	g.view.CardFlipped(*card)

	if g.turn.First == nil {
		g.turn.First = &card.Index
		return Selected
	}

	g.turn.Second = &card.Index

	first := &g.deck[*g.turn.First]
	if first.Key == card.Key {
		return g.pair(first, card)
	}

	g.turn.Locked = true
	g.turn.AwaitingDismiss = true

	g.disarmDismissal()
	g.cancelDismissal = g.sched.After(g.opts.MismatchDelay, func() {
		g.Dismiss(ByTimer)
	})

	return Mismatched
}

func (g *Game) pair(first, second *Card) Outcome {
	first.State = Matched
	second.State = Matched

	g.view.CardMatched(*first)
	g.view.CardMatched(*second)

	g.view.Sparkle(*first, NewBurst(g.opts.Rand))
	g.view.Sparkle(*second, NewBurst(g.opts.Rand))

	g.turn.MatchedPairs++
	g.turn.First = nil
	g.turn.Second = nil

	if g.turn.MatchedPairs == g.TotalPairs() {
		g.clock.Stop()
		g.view.Completion(g.opts.CompletionDuration, g.clock.Text())

		return Completed
	}

	return Paired
}

// Dismiss closes the mismatch window, turning both cards face down again.
// It reports whether there was anything to dismiss.
func (g *Game) Dismiss(origin DismissOrigin) bool {
	if !g.turn.AwaitingDismiss {
		return false
	}

	g.disarmDismissal()

	for _, sel := range []*int{g.turn.First, g.turn.Second} {
		if sel == nil {
			continue
		}

		card := &g.deck[*sel]
		if card.State != Flipped {
			continue
		}

		card.State = Hidden
		g.view.CardHidden(*card)
	}

	g.turn.First = nil
	g.turn.Second = nil
	g.turn.AwaitingDismiss = false
	g.turn.Locked = false

	return true
}

// Close cancels all pending work without publishing anything. The game
// should not be used afterwards.
func (g *Game) Close() {
	g.disarmDismissal()
	g.clock.halt()
}

func (g *Game) disarmDismissal() {
	if g.cancelDismissal != nil {
		g.cancelDismissal()
		g.cancelDismissal = nil
	}
}

func (g *Game) TotalPairs() int { return len(g.keys) }

func (g *Game) Keys() []string { return append([]string(nil), g.keys...) }

// Done reports whether every pair has been matched.
func (g *Game) Done() bool {
	return len(g.keys) > 0 && g.turn.MatchedPairs == len(g.keys)
}

func (g *Game) Phase() Phase {
	switch {
	case g.Done():
		return Complete
	case g.turn.AwaitingDismiss:
		return MismatchWait
	case g.turn.First != nil:
		return OneSelected
	default:
		return Idle
	}
}

// Turn returns a copy of the current turn state.
func (g *Game) Turn() TurnState {
	t := g.turn
	if t.First != nil {
		v := *t.First
		t.First = &v
	}
	if t.Second != nil {
		v := *t.Second
		t.Second = &v
	}
	return t
}

// Deck returns a copy of the board.
func (g *Game) Deck() Deck {
	return append(Deck(nil), g.deck...)
}

func (g *Game) Clock() *Clock { return g.clock }

// Snapshot is everything a newly attached view needs to draw the board.
type Snapshot struct {
	Cards           []CardView `json:"cards"`
	Phase           string     `json:"phase"`
	Locked          bool       `json:"locked"`
	AwaitingDismiss bool       `json:"awaiting_dismiss"`
	MatchedPairs    int        `json:"matched_pairs"`
	TotalPairs      int        `json:"total_pairs"`
	Timer           string     `json:"timer"`
	TimerFinal      bool       `json:"timer_final"`
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Cards:           g.deck.Views(),
		Phase:           g.Phase().String(),
		Locked:          g.turn.Locked,
		AwaitingDismiss: g.turn.AwaitingDismiss,
		MatchedPairs:    g.turn.MatchedPairs,
		TotalPairs:      g.TotalPairs(),
		Timer:           g.clock.Text(),
		TimerFinal:      g.clock.Started() && !g.clock.Running(),
	}
}
