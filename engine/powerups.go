package engine

// Powerups are earned through combo thresholds (see grantPowerups) and
// spent by playing with one armed. Arming is a pure toggle: it changes how
// the next play is evaluated, nothing else.

// SelectPowerup toggles the armed powerup between kind and none. A no-op
// when the deal is over, the kind is unknown, or inventory for kind is
// empty.
func (g GameState) SelectPowerup(kind PowerupKind) GameState {
	if g.Status != StatusPlaying {
		return g
	}
	if kind >= NumPowerups || g.Powerups[kind] == 0 {
		return g
	}
	if g.ActivePowerup == kind {
		g.ActivePowerup = PowerupNone
	} else {
		g.ActivePowerup = kind
	}
	return g
}

// ParsePowerupKind maps a powerup name to its kind.
func ParsePowerupKind(name string) (PowerupKind, bool) {
	switch name {
	case "wild":
		return PowerupWild, true
	case "bomb":
		return PowerupBomb, true
	case "rainbow":
		return PowerupRainbow, true
	}
	return PowerupNone, false
}
