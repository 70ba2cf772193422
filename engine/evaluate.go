package engine

// Move evaluation: a proposed play is checked against the current state and
// either yields the full set of positions it would clear or a categorized
// rejection. The evaluator never mutates state; applying the clear set is
// the transition engine's job.

// rankAdjacent reports whether two ranks match: distance one, or the
// Ace/King pair when wrap is enabled.
func rankAdjacent(a, b uint8, wrap bool) bool {
	d := int(a) - int(b)
	if d == 1 || d == -1 {
		return true
	}
	if !wrap {
		return false
	}
	return (a == RankAce && b == RankKing) || (a == RankKing && b == RankAce)
}

// ProposePlay evaluates a play at target under the active powerup mode.
// On success it returns the positions the play would clear (always
// including target) and RejectNone.
func (g *GameState) ProposePlay(target uint8) (ClearSet, Rejection) {
	if g.Status != StatusPlaying {
		return 0, RejectMode
	}
	if target >= TableauSize || g.Tableau[target] == EmptyCard || !g.IsExposed(target) {
		return 0, RejectTarget
	}

	switch g.ActivePowerup {
	case PowerupNone:
		top := g.WasteTop()
		if top == EmptyCard {
			return 0, RejectMatch
		}
		if !rankAdjacent(g.Tableau[target].Rank(), top.Rank(), g.WrapEnabled) {
			return 0, RejectMatch
		}
		return ClearSet(0).Add(target), RejectNone

	case PowerupWild:
		if g.Powerups[PowerupWild] == 0 {
			return 0, RejectMode
		}
		return ClearSet(0).Add(target), RejectNone

	case PowerupBomb:
		if g.Powerups[PowerupBomb] == 0 {
			return 0, RejectMode
		}
		// The blast is evaluated with the target already gone: cards the
		// target was covering count as exposed and are caught by it.
		after := *g
		after.Tableau[target] = EmptyCard
		clears := ClearSet(0).Add(target)
		for _, nb := range board.Neighbors(target) {
			if after.IsExposed(nb) {
				clears = clears.Add(nb)
			}
		}
		return clears, RejectNone

	case PowerupRainbow:
		if g.Powerups[PowerupRainbow] == 0 {
			return 0, RejectMode
		}
		rank := g.Tableau[target].Rank()
		clears := ClearSet(0)
		for id := uint8(0); id < TableauSize; id++ {
			if g.IsExposed(id) && g.Tableau[id].Rank() == rank {
				clears = clears.Add(id)
			}
		}
		return clears, RejectNone
	}

	return 0, RejectMode
}
