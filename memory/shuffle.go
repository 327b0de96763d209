/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"math/rand/v2"
)

// Rand is the source of randomness used for shuffling and effects.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

func orDefault(r Rand) Rand {
	if r == nil {
		return globalRand{}
	}
	return r
}

// Shuffle returns a uniformly shuffled copy of in (Fisher-Yates).
// The input slice is left untouched.
func Shuffle[T any](in []T, r Rand) []T {
	r = orDefault(r)

	out := make([]T, len(in))
	copy(out, in)

	for i := len(out) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}
