package engine

import "math/bits"

// Seeding and per-draw mixing use a fixed public algorithm pair so the same
// seed string reproduces the same shuffle on every run and platform:
// xmur3 derives a 32-bit state from the seed (sensitive to byte order and
// length, not just the character multiset), mulberry32 mixes one draw per
// call. Only uint32 arithmetic and one IEEE-754 division are involved.

// hashSeed derives the initial RNG state from a seed string via xmur3.
func hashSeed(seed string) uint32 {
	h := uint32(1779033703) ^ uint32(len(seed))
	for i := 0; i < len(seed); i++ {
		h = (h ^ uint32(seed[i])) * 3432918353
		h = bits.RotateLeft32(h, 13)
	}
	h = (h ^ (h >> 16)) * 2246822507
	h = (h ^ (h >> 13)) * 3266489909
	return h ^ (h >> 16)
}

// nextFloat advances the RNG state (mulberry32) and returns a float64 in [0,1).
func (g *GameState) nextFloat() float64 {
	g.RNG += 0x6D2B79F5
	t := g.RNG
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	t ^= t >> 14
	return float64(t) / 4294967296.0
}

// randN returns a number in [0, n) as floor(next() * n).
func (g *GameState) randN(n int) int {
	return int(g.nextFloat() * float64(n))
}
