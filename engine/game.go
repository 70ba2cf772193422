// Package engine implements the candy solitaire rules.
//
// The engine is a pure state machine: a deal is reproduced from a seed
// string, every transition maps one immutable GameState value to the next,
// and undo replays plain value copies. There is no I/O and no locking here;
// the service layer owns those concerns.
package engine

// GameState holds the complete, self-contained state of one deal.
// It is a flat comparable value type (no pointers, no slices): transitions
// return new values, history stores copies, and == is structural equality.
type GameState struct {
	Seed          string
	RNG           uint32            // mulberry32 state, advanced per draw
	Tableau       [TableauSize]Card // EmptyCard marks a cleared slot
	Stock         [StockCap]Card    // top is Stock[StockLen-1]
	StockLen      uint8
	Waste         [DeckSize]Card // top is Waste[WasteLen-1]
	WasteLen      uint8
	Hold          Card // EmptyCard when vacant
	Score         uint32
	Combo         uint16
	Powerups      [NumPowerups]uint8 // counts, indexed by PowerupKind
	ActivePowerup PowerupKind        // PowerupNone when no powerup is armed
	PowerupCycle  uint16             // grant rotation cursor, never decreases
	WrapEnabled   bool               // Ace and King count as adjacent
	Status        Status
	BonusAwarded  bool
}

// ---------------------------------------------------------------------------
// Deal
// ---------------------------------------------------------------------------

// Deal builds the initial GameState for a seed: canonical 52-card deck,
// Fisher-Yates shuffle, 28 cards onto the tableau in layout order, the
// remainder to the stock, and one card flipped from stock to start the
// waste. The same seed always produces the same deal.
func Deal(seed string) GameState {
	var g GameState
	g.Seed = seed
	g.RNG = hashSeed(seed)
	g.Hold = EmptyCard
	g.ActivePowerup = PowerupNone
	g.WrapEnabled = true

	// Canonical order: suits Hearts..Spades, ranks Ace..King within each.
	var deck [DeckSize]Card
	idx := 0
	for suit := uint8(0); suit < 4; suit++ {
		for rank := RankAce; rank <= RankKing; rank++ {
			deck[idx] = NewCard(suit, rank)
			idx++
		}
	}

	// Fisher-Yates shuffle.
	for i := DeckSize - 1; i > 0; i-- {
		j := g.randN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}

	for id := 0; id < TableauSize; id++ {
		g.Tableau[id] = deck[id]
	}

	// Remainder becomes the stock in shuffle order; the last card is the top.
	for i := TableauSize; i < DeckSize; i++ {
		g.Stock[g.StockLen] = deck[i]
		g.StockLen++
	}

	// Flip the initial up-card.
	g.StockLen--
	g.Waste[0] = g.Stock[g.StockLen]
	g.WasteLen = 1

	return g
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// IsTerminal returns true once the deal is won or lost.
func (g *GameState) IsTerminal() bool { return g.Status != StatusPlaying }

// WasteTop returns the top of the waste pile, or EmptyCard if empty.
func (g *GameState) WasteTop() Card {
	if g.WasteLen == 0 {
		return EmptyCard
	}
	return g.Waste[g.WasteLen-1]
}

// TableauCount returns the number of occupied tableau positions.
func (g *GameState) TableauCount() int {
	n := 0
	for id := 0; id < TableauSize; id++ {
		if g.Tableau[id] != EmptyCard {
			n++
		}
	}
	return n
}

// PowerupCount returns the total inventory across all powerup kinds.
func (g *GameState) PowerupCount() int {
	n := 0
	for _, c := range g.Powerups {
		n += int(c)
	}
	return n
}

// ---------------------------------------------------------------------------
// Game: caller-facing orchestrator
// ---------------------------------------------------------------------------

// Game owns the current state plus its undo history. One Game serves one
// caller; access is not synchronized here.
type Game struct {
	State   GameState
	History History
}

// New deals a fresh Game from seed.
func New(seed string) *Game {
	return &Game{State: Deal(seed)}
}

// Redeal starts over from seed, dropping all history.
func (gm *Game) Redeal(seed string) {
	gm.State = Deal(seed)
	gm.History.Reset()
}

// apply commits next against the current state and reports whether the
// transition was effectful.
func (gm *Game) apply(next GameState) bool {
	changed := next != gm.State
	gm.State = gm.History.Commit(gm.State, next)
	return changed
}

// Play proposes and applies a clear at target. On rejection the state is
// unchanged and the category is returned.
func (gm *Game) Play(target uint8) Rejection {
	clears, rej := gm.State.ProposePlay(target)
	if rej != RejectNone {
		return rej
	}
	gm.apply(gm.State.Clear(target, clears))
	return RejectNone
}

// Draw flips the next stock card onto the waste.
func (gm *Game) Draw() bool { return gm.apply(gm.State.Draw()) }

// Hold swaps the waste top with the hold slot.
func (gm *Game) Hold() bool { return gm.apply(gm.State.HoldSwap()) }

// ToggleWrap sets the Ace/King wrap rule.
func (gm *Game) ToggleWrap(enabled bool) bool { return gm.apply(gm.State.ToggleWrap(enabled)) }

// SelectPowerup arms or disarms a powerup kind.
func (gm *Game) SelectPowerup(kind PowerupKind) bool { return gm.apply(gm.State.SelectPowerup(kind)) }

// Undo restores the most recently committed state. Reports whether
// anything was undone.
func (gm *Game) Undo() bool {
	prior, ok := gm.History.Undo()
	if ok {
		gm.State = prior
	}
	return ok
}
