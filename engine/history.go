package engine

// History is the linear undo log. Only effectful transitions are kept:
// Commit compares prior and next structurally, so a rejected or no-op
// transition never grows the log and undo always reverses exactly one
// real move.
type History struct {
	frames []GameState
}

// Commit archives prior when next differs from it, and returns next.
func (h *History) Commit(prior, next GameState) GameState {
	if next != prior {
		h.frames = append(h.frames, prior)
	}
	return next
}

// Undo pops and returns the most recently archived state. ok is false and
// the log is unchanged when there is nothing to undo.
func (h *History) Undo() (GameState, bool) {
	if len(h.frames) == 0 {
		return GameState{}, false
	}
	prior := h.frames[len(h.frames)-1]
	h.frames = h.frames[:len(h.frames)-1]
	return prior, true
}

// Len returns the number of undoable transitions.
func (h *History) Len() int { return len(h.frames) }

// Reset drops the whole log. A fresh deal calls this unconditionally.
func (h *History) Reset() { h.frames = h.frames[:0] }

// Hash returns a fast 64-bit FNV-1a hash of the live state, for
// determinism checks and journal checksums. Equal states hash equal.
func (g *GameState) Hash() uint64 {
	h := uint64(14695981039346656037) // FNV-1a offset basis
	const prime = uint64(1099511628211)

	for i := 0; i < len(g.Seed); i++ {
		h ^= uint64(g.Seed[i])
		h *= prime
	}
	for id := 0; id < TableauSize; id++ {
		h ^= uint64(g.Tableau[id])
		h *= prime
	}
	for i := uint8(0); i < g.StockLen; i++ {
		h ^= uint64(g.Stock[i])
		h *= prime
	}
	for i := uint8(0); i < g.WasteLen; i++ {
		h ^= uint64(g.Waste[i])
		h *= prime
	}
	h ^= uint64(g.Hold)
	h *= prime
	h ^= uint64(g.Score) << 8
	h *= prime
	h ^= uint64(g.Combo) << 16
	h *= prime
	h ^= uint64(g.PowerupCycle) << 24
	h *= prime
	for _, c := range g.Powerups {
		h ^= uint64(c)
		h *= prime
	}
	h ^= uint64(g.ActivePowerup) << 32
	h *= prime
	var flags uint64
	if g.WrapEnabled {
		flags |= 1
	}
	if g.BonusAwarded {
		flags |= 2
	}
	h ^= flags<<40 | uint64(g.Status)<<48
	h *= prime
	return h
}
