package engine

import "math"

// multiplier returns the combo score multiplier: 1.0 at combo 0, stepping
// +0.5 for every ComboStep cards of running combo, capped at 3.0.
func multiplier(combo uint16) float64 {
	steps := float64(combo/ComboStep) * 0.5
	if steps > 2.0 {
		steps = 2.0
	}
	return 1 + steps
}

// clearPoints returns the score gain for clearing n cards with the combo
// already advanced to its post-clear value.
func clearPoints(n int, combo uint16) uint32 {
	return uint32(math.Round(float64(n) * BasePoints * multiplier(combo)))
}

// grantPowerups awards one powerup per ComboStep threshold crossed in
// (oldCombo, newCombo], following the fixed rotation wild → bomb → rainbow.
// A single large clear can cross several thresholds and earn several grants.
func (g *GameState) grantPowerups(oldCombo, newCombo uint16) {
	grants := newCombo/ComboStep - oldCombo/ComboStep
	for i := uint16(0); i < grants; i++ {
		kind := PowerupKind(g.PowerupCycle % NumPowerups)
		g.Powerups[kind]++
		g.PowerupCycle++
	}
}
