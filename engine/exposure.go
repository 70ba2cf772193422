package engine

// Exposure is derived, never stored: a position is exposed iff it holds a
// card and no coverer holds a card. Base-row positions have no coverers,
// so they are exposed whenever occupied. With 28 positions and at most two
// coverers each, recomputing per query is cheaper than maintaining a cache
// across transitions.

// IsExposed reports whether position id is currently playable.
func (g *GameState) IsExposed(id uint8) bool {
	if id >= TableauSize || g.Tableau[id] == EmptyCard {
		return false
	}
	for _, cov := range board.Coverers(id) {
		if g.Tableau[cov] != EmptyCard {
			return false
		}
	}
	return true
}

// ExposedSet returns the bitmask of all currently exposed positions.
func (g *GameState) ExposedSet() ClearSet {
	var s ClearSet
	for id := uint8(0); id < TableauSize; id++ {
		if g.IsExposed(id) {
			s = s.Add(id)
		}
	}
	return s
}
