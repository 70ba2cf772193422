package engine

import "math/bits"

// Suit constants, packed into the upper 4 bits of Card.
const (
	SuitHearts   uint8 = 0
	SuitDiamonds uint8 = 1
	SuitClubs    uint8 = 2
	SuitSpades   uint8 = 3
)

// Rank constants, packed into the lower 4 bits of Card. Ranks run 1..13 so
// match adjacency is plain integer distance.
const (
	RankAce   uint8 = 1
	RankTwo   uint8 = 2
	RankThree uint8 = 3
	RankFour  uint8 = 4
	RankFive  uint8 = 5
	RankSix   uint8 = 6
	RankSeven uint8 = 7
	RankEight uint8 = 8
	RankNine  uint8 = 9
	RankTen   uint8 = 10
	RankJack  uint8 = 11
	RankQueen uint8 = 12
	RankKing  uint8 = 13
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card (vacant slot, empty hold).
const EmptyCard Card = 0xFF

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

// Board and deck dimensions.
const (
	DeckSize    = 52
	TableauSize = 28
	NumRows     = 4
	StockCap    = DeckSize - TableauSize // 24; one card flips to waste at deal
)

// Scoring constants.
const (
	BasePoints = 100 // per cleared card, before the combo multiplier
	StockBonus = 100 // per stock card remaining when the board is cleared
	ComboStep  = 3   // combo interval that grants a powerup and steps the multiplier
)

// PowerupKind identifies one of the three powerup kinds. The values double
// as inventory indices and as the grant rotation order.
type PowerupKind uint8

const (
	PowerupWild    PowerupKind = 0
	PowerupBomb    PowerupKind = 1
	PowerupRainbow PowerupKind = 2

	// PowerupNone marks "no active powerup".
	PowerupNone PowerupKind = 0xFF
)

// NumPowerups is the number of distinct powerup kinds.
const NumPowerups = 3

func (k PowerupKind) String() string {
	switch k {
	case PowerupWild:
		return "wild"
	case PowerupBomb:
		return "bomb"
	case PowerupRainbow:
		return "rainbow"
	}
	return "none"
}

// Status is the lifecycle state of a deal.
type Status uint8

const (
	StatusPlaying Status = iota
	StatusWon
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	}
	return "playing"
}

// Rejection categorizes why a proposed play was refused.
type Rejection uint8

const (
	RejectNone   Rejection = iota // play is legal
	RejectTarget                  // vacant, out-of-range, or covered position
	RejectMode                    // wrong status, or active powerup with no inventory
	RejectMatch                   // plain match with empty waste or non-adjacent rank
)

func (r Rejection) String() string {
	switch r {
	case RejectTarget:
		return "illegal-target"
	case RejectMode:
		return "illegal-mode"
	case RejectMatch:
		return "illegal-match"
	}
	return "legal"
}

// ClearSet is a bitmask over tableau position ids (bit i = position i).
type ClearSet uint32

// Has reports whether position id is in the set.
func (s ClearSet) Has(id uint8) bool { return s&(1<<id) != 0 }

// Add returns the set with position id included.
func (s ClearSet) Add(id uint8) ClearSet { return s | 1<<id }

// Count returns the number of positions in the set.
func (s ClearSet) Count() int { return bits.OnesCount32(uint32(s)) }

// IDs returns the position ids in the set in ascending order.
func (s ClearSet) IDs() []uint8 {
	ids := make([]uint8, 0, s.Count())
	for id := uint8(0); id < TableauSize; id++ {
		if s.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
