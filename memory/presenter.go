/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import "time"

// Presenter receives every visible consequence of a state transition.
// Calls are fire-and-forget; a Presenter must not call back into the Game.
// Completion carries the frozen clock text so views never need to ask.
type Presenter interface {
	DeckReset(cards []CardView)
	CardFlipped(card Card)
	CardHidden(card Card)
	CardMatched(card Card)
	TimerDisplay(text string, final bool)
	Sparkle(card Card, burst Burst)
	Completion(d time.Duration, elapsed string)
}

// NopPresenter discards everything.
type NopPresenter struct{}

func (NopPresenter) DeckReset([]CardView)             {}
func (NopPresenter) CardFlipped(Card)                 {}
func (NopPresenter) CardHidden(Card)                  {}
func (NopPresenter) CardMatched(Card)                 {}
func (NopPresenter) TimerDisplay(string, bool)        {}
func (NopPresenter) Sparkle(Card, Burst)              {}
func (NopPresenter) Completion(time.Duration, string) {}

// CardView is the client-facing representation of a card.
// Key is only included once the card has been turned over.
type CardView struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	State string `json:"state"`
}

func (c Card) View() CardView {
	v := CardView{
		Index: c.Index,
		State: c.State.String(),
	}
	if c.State != Hidden {
		v.Key = c.Key
	}
	return v
}

func (d Deck) Views() []CardView {
	views := make([]CardView, len(d))
	for i, card := range d {
		views[i] = card.View()
	}
	return views
}
