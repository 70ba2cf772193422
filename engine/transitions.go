package engine

// Transitions are total: when a precondition fails the unchanged state is
// returned, which the history stack recognizes as a no-op and declines to
// commit. Value receivers mean every prior state survives intact.

// Clear applies a legal play: empties every position in clears, pushes the
// target's former occupant onto the waste as the new up-card, and settles
// combo, score, powerup consumption, and powerup grants. clears normally
// comes straight from ProposePlay.
func (g GameState) Clear(target uint8, clears ClearSet) GameState {
	if g.Status != StatusPlaying || clears == 0 {
		return g
	}
	if target >= TableauSize || g.Tableau[target] == EmptyCard || !clears.Has(target) {
		return g
	}

	played := g.Tableau[target]
	for id := uint8(0); id < TableauSize; id++ {
		if clears.Has(id) {
			g.Tableau[id] = EmptyCard
		}
	}
	g.Waste[g.WasteLen] = played
	g.WasteLen++

	n := clears.Count()
	oldCombo := g.Combo
	g.Combo += uint16(n)
	g.Score += clearPoints(n, g.Combo)

	if g.ActivePowerup != PowerupNone && g.Powerups[g.ActivePowerup] > 0 {
		g.Powerups[g.ActivePowerup]--
	}
	g.grantPowerups(oldCombo, g.Combo)
	g.ActivePowerup = PowerupNone

	g.evaluateTerminal()
	return g
}

// Draw flips the stock top onto the waste and breaks the combo. Score and
// inventory are untouched.
func (g GameState) Draw() GameState {
	if g.Status != StatusPlaying || g.StockLen == 0 {
		return g
	}
	g.StockLen--
	g.Waste[g.WasteLen] = g.Stock[g.StockLen]
	g.WasteLen++
	g.Combo = 0
	g.ActivePowerup = PowerupNone
	g.evaluateTerminal()
	return g
}

// HoldSwap moves the waste top into the hold slot; an existing hold card
// goes back on top of the waste (a swap). Breaks the combo.
func (g GameState) HoldSwap() GameState {
	if g.Status != StatusPlaying || g.WasteLen == 0 {
		return g
	}
	picked := g.Waste[g.WasteLen-1]
	g.WasteLen--
	if g.Hold != EmptyCard {
		g.Waste[g.WasteLen] = g.Hold
		g.WasteLen++
	}
	g.Hold = picked
	g.Combo = 0
	g.ActivePowerup = PowerupNone
	g.evaluateTerminal()
	return g
}

// ToggleWrap sets the Ace/King wrap rule. Pure field update: combo,
// inventory, and the armed powerup are untouched, and the toggle stays
// legal after the deal ends.
func (g GameState) ToggleWrap(enabled bool) GameState {
	g.WrapEnabled = enabled
	return g
}
