/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"fmt"
)

// CardState represents the current state of a card.
type CardState int

const (
	Hidden CardState = iota
	Flipped
	Matched
)

func (cs CardState) String() string {
	switch cs {
	case Hidden:
		return "hidden"
	case Flipped:
		return "flipped"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// Card is a single card on the board. Key is the pairing key shared with
// exactly one other card; Index is the card's position in the deck.
type Card struct {
	Index int
	Key   string
	State CardState
}

// Deck is the ordered board, two cards per pairing key.
type Deck []Card

// BuildDeck lays out keys twice, shuffles them and returns one hidden card
// per position. Duplicate keys are not rejected here; see ValidateKeys.
func BuildDeck(keys []string, r Rand) Deck {
	doubled := make([]string, 0, 2*len(keys))
	doubled = append(doubled, keys...)
	doubled = append(doubled, keys...)

	shuffled := Shuffle(doubled, r)

	deck := make(Deck, len(shuffled))
	for i, key := range shuffled {
		deck[i] = Card{
			Index: i,
			Key:   key,
			State: Hidden,
		}
	}

	return deck
}

// ValidateKeys reports empty or repeated pairing keys.
func ValidateKeys(keys []string) error {
	if len(keys) == 0 {
		return ErrNoPairs
	}

	seen := make(map[string]struct{}, len(keys))
	for i, key := range keys {
		if key == "" {
			return fmt.Errorf("%w: position %d", ErrEmptyKey, i)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// Count returns the number of cards in each state.
func (d Deck) Count(state CardState) int {
	n := 0
	for _, card := range d {
		if card.State == state {
			n++
		}
	}
	return n
}

func (d Deck) valid(index int) bool {
	return index >= 0 && index < len(d)
}
