package engine

// evaluateTerminal settles win/loss after a card-moving transition.
// Priority order: an empty tableau wins, with a one-time bonus for unused
// stock; otherwise an exhausted stock loses when nothing is exposed, or
// when no powerup is available and no exposed rank matches the waste top.
func (g *GameState) evaluateTerminal() {
	if g.TableauCount() == 0 {
		g.Status = StatusWon
		if !g.BonusAwarded {
			g.Score += uint32(g.StockLen) * StockBonus
			g.BonusAwarded = true
		}
		return
	}
	if g.StockLen > 0 {
		return
	}

	exposed := g.ExposedSet()
	if exposed == 0 {
		g.Status = StatusLost
		return
	}

	// Any powerup on hand postpones the loss, even one that could not
	// actually fire on this board.
	if g.ActivePowerup != PowerupNone || g.PowerupCount() > 0 {
		return
	}

	top := g.WasteTop()
	if top != EmptyCard {
		for id := uint8(0); id < TableauSize; id++ {
			if exposed.Has(id) && rankAdjacent(g.Tableau[id].Rank(), top.Rank(), g.WrapEnabled) {
				return
			}
		}
	}
	g.Status = StatusLost
}
