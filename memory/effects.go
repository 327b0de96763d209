/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import "math"

// Particle is one sparkle, positioned in percent of the card and drifting
// by DX/DY pixels.
type Particle struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
	DX   int     `json:"dx"`
	DY   int     `json:"dy"`
}

// Burst is the set of sparkles shown on a freshly matched card.
type Burst struct {
	Particles []Particle `json:"particles"`
}

// NewBurst picks two or three particles near the centre of the card.
func NewBurst(r Rand) Burst {
	r = orDefault(r)

	count := 2 + r.IntN(2)

	b := Burst{Particles: make([]Particle, count)}
	for i := range b.Particles {
		b.Particles[i] = Particle{
			Left: 45 + r.Float64()*10,
			Top:  45 + r.Float64()*10,
			DX:   int(math.Round(r.Float64()*22 - 11)),
			DY:   int(math.Round(r.Float64()*22 - 11)),
		}
	}

	return b
}
