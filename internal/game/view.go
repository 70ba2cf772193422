// internal/game/view.go
package game

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/AdamPallus/candy-solitaire/engine"
)

// CardView is the client-facing rendering of a card.
type CardView struct {
	Rank string `json:"rank"` // "A", "2".."9", "T", "J", "Q", "K"
	Suit string `json:"suit"` // "H", "D", "C", "S"
}

// SlotView is one tableau position. Card is nil once the slot is vacant.
type SlotView struct {
	ID      uint8     `json:"id"`
	Card    *CardView `json:"card,omitempty"`
	Exposed bool      `json:"exposed"`
}

// StateView is the full client-facing snapshot of a session. Unlike the
// engine state it never exposes stock or waste contents below the top card,
// so clients cannot peek at undealt cards.
type StateView struct {
	GameID        uuid.UUID        `json:"gameId"`
	Seed          string           `json:"seed"`
	DailyDate     string           `json:"dailyDate,omitempty"`
	Status        string           `json:"status"`
	Score         uint32           `json:"score"`
	Combo         uint16           `json:"combo"`
	Tableau       []SlotView       `json:"tableau"`
	StockCount    int              `json:"stockCount"`
	WasteCount    int              `json:"wasteCount"`
	WasteTop      *CardView        `json:"wasteTop,omitempty"`
	Hold          *CardView        `json:"hold,omitempty"`
	Powerups      map[string]uint8 `json:"powerups"`
	ActivePowerup string           `json:"activePowerup,omitempty"`
	WrapEnabled   bool             `json:"wrapEnabled"`
	Moves         int              `json:"moves"`
	CanUndo       bool             `json:"canUndo"`
}

// engineRankToString converts an engine rank (1-13) to its display string.
func engineRankToString(rank uint8) string {
	switch rank {
	case engine.RankAce:
		return "A"
	case engine.RankTen:
		return "T"
	case engine.RankJack:
		return "J"
	case engine.RankQueen:
		return "Q"
	case engine.RankKing:
		return "K"
	default:
		return strconv.Itoa(int(rank))
	}
}

// engineSuitToString converts an engine suit to its display string.
func engineSuitToString(suit uint8) string {
	switch suit {
	case engine.SuitHearts:
		return "H"
	case engine.SuitDiamonds:
		return "D"
	case engine.SuitClubs:
		return "C"
	default:
		return "S"
	}
}

func cardView(c engine.Card) *CardView {
	if c == engine.EmptyCard {
		return nil
	}
	return &CardView{
		Rank: engineRankToString(c.Rank()),
		Suit: engineSuitToString(c.Suit()),
	}
}

// buildView renders the current engine state for clients.
// Assumes lock is held by caller.
func (s *Session) buildView() StateView {
	st := &s.game.State

	v := StateView{
		GameID:      s.ID,
		Seed:        st.Seed,
		DailyDate:   s.DailyDate,
		Status:      st.Status.String(),
		Score:       st.Score,
		Combo:       st.Combo,
		Tableau:     make([]SlotView, engine.TableauSize),
		StockCount:  int(st.StockLen),
		WasteCount:  int(st.WasteLen),
		WasteTop:    cardView(st.WasteTop()),
		Hold:        cardView(st.Hold),
		Powerups:    make(map[string]uint8, engine.NumPowerups),
		WrapEnabled: st.WrapEnabled,
		Moves:       s.moves,
		CanUndo:     s.game.History.Len() > 0,
	}
	for id := uint8(0); id < engine.TableauSize; id++ {
		v.Tableau[id] = SlotView{
			ID:      id,
			Card:    cardView(st.Tableau[id]),
			Exposed: st.IsExposed(id),
		}
	}
	for kind := engine.PowerupKind(0); kind < engine.NumPowerups; kind++ {
		v.Powerups[kind.String()] = st.Powerups[kind]
	}
	if st.ActivePowerup != engine.PowerupNone {
		v.ActivePowerup = st.ActivePowerup.String()
	}
	return v
}

// View returns a snapshot of the session for clients.
func (s *Session) View() StateView {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.buildView()
}
