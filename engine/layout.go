package engine

// Position is one tableau slot. Ids are dense, 0..27, assigned row-major
// from the peaks down to the base.
type Position struct {
	ID  uint8
	Row uint8
	Col uint8
}

// rowCols lists the column of every position, row by row. Columns are
// half-unit offsets chosen so that the coverers of a position at (row r,
// col c) are exactly the row r+1 positions at columns c-1 and c+1. Row 3
// is the contiguous base under the three peaks.
var rowCols = [NumRows][]uint8{
	{4, 10, 16},
	{3, 5, 9, 11, 15, 17},
	{2, 4, 6, 8, 10, 12, 14, 16, 18},
	{1, 3, 5, 7, 9, 11, 13, 15, 17, 19},
}

// Layout is the static board graph: 28 positions plus the derived coverer
// and neighbor tables. It is immutable after construction and shared by
// every deal in the process.
type Layout struct {
	Positions [TableauSize]Position
	coverers  [TableauSize][]uint8
	neighbors [TableauSize][]uint8
}

var board = buildBoard()

// Board returns the shared board layout.
func Board() *Layout { return board }

// Coverers returns the positions that must be vacated before id is exposed.
// Base-row positions have none. Callers must not modify the returned slice.
func (l *Layout) Coverers(id uint8) []uint8 { return l.coverers[id] }

// Neighbors returns the symmetric closure of the coverer relation at id:
// its coverers plus the positions it covers. Callers must not modify the
// returned slice.
func (l *Layout) Neighbors(id uint8) []uint8 { return l.neighbors[id] }

func buildBoard() *Layout {
	l := &Layout{}

	id := uint8(0)
	for row := uint8(0); row < NumRows; row++ {
		for _, col := range rowCols[row] {
			l.Positions[id] = Position{ID: id, Row: row, Col: col}
			id++
		}
	}
	if id != TableauSize {
		panic("board layout does not have 28 positions")
	}

	// at maps (row, col) back to a position id.
	at := func(row int, col uint8) (uint8, bool) {
		if row < 0 || row >= NumRows {
			return 0, false
		}
		for _, p := range l.Positions {
			if p.Row == uint8(row) && p.Col == col {
				return p.ID, true
			}
		}
		return 0, false
	}

	for _, p := range l.Positions {
		for _, dc := range [2]int{-1, 1} {
			col := uint8(int(p.Col) + dc)
			if cov, ok := at(int(p.Row)+1, col); ok {
				l.coverers[p.ID] = append(l.coverers[p.ID], cov)
			}
			if child, ok := at(int(p.Row)-1, col); ok {
				l.neighbors[p.ID] = append(l.neighbors[p.ID], child)
			}
		}
		l.neighbors[p.ID] = append(l.neighbors[p.ID], l.coverers[p.ID]...)
	}

	return l
}
