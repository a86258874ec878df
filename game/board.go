package game

const (
	BoardWidth    = 10
	VisibleHeight = 20
	BoardHeight   = 40
	// BufferHeight rows sit above the visible field for spawning and top-out detection
	BufferHeight = BoardHeight - VisibleHeight
)

// Cell is a board cell state: Empty, a piece color id (Kind+1) or GarbageCell
type Cell uint8

const (
	Empty       Cell = 0
	GarbageCell Cell = 8
)

// Board is the playfield, row 0 at the top of the hidden buffer
type Board [BoardHeight][BoardWidth]Cell

// Fits reports whether every cell of p lies within the side walls, above the
// floor and on an empty cell. Cells above row 0 only get the wall check
func (b *Board) Fits(p Piece) bool {
	for _, c := range p.Cells() {
		if c.Col < 0 || c.Col >= BoardWidth || c.Row >= BoardHeight {
			return false
		}
		if c.Row >= 0 && b[c.Row][c.Col] != Empty {
			return false
		}
	}
	return true
}

// Occupied treats anything outside the board as solid
func (b *Board) Occupied(row, col int) bool {
	if row < 0 || row >= BoardHeight || col < 0 || col >= BoardWidth {
		return true
	}
	return b[row][col] != Empty
}

// Place writes the piece's cells into the board, skipping any outside it
func (b *Board) Place(p Piece) {
	id := p.Kind.Cell()
	for _, c := range p.Cells() {
		if c.Row >= 0 && c.Row < BoardHeight && c.Col >= 0 && c.Col < BoardWidth {
			b[c.Row][c.Col] = id
		}
	}
}

// FullRows returns the indices of completely filled rows, top to bottom
func (b *Board) FullRows() []int {
	var rows []int
	for r := range BoardHeight {
		full := true
		for _, c := range b[r] {
			if c == Empty {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, r)
		}
	}
	return rows
}

// RemoveRows deletes the given rows and lets everything above fall
func (b *Board) RemoveRows(rows []int) {
	if len(rows) == 0 {
		return
	}
	skip := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		skip[r] = struct{}{}
	}

	var out Board
	dest := BoardHeight - 1
	for src := BoardHeight - 1; src >= 0; src-- {
		if _, ok := skip[src]; ok {
			continue
		}
		out[dest] = b[src]
		dest--
	}
	*b = out
}

// EmptyExcept reports whether all rows not listed are empty
func (b *Board) EmptyExcept(rows []int) bool {
	for r := range BoardHeight {
		if containsRow(rows, r) {
			continue
		}
		for _, c := range b[r] {
			if c != Empty {
				return false
			}
		}
	}
	return true
}

// AddGarbage pushes the stack up by lines rows and fills the bottom with
// garbage, leaving hole empty in each new row. Rows pushed past the top are lost
func (b *Board) AddGarbage(lines, hole int) {
	if lines <= 0 {
		return
	}
	if lines > BoardHeight {
		lines = BoardHeight
	}
	for r := 0; r < BoardHeight-lines; r++ {
		b[r] = b[r+lines]
	}
	for r := BoardHeight - lines; r < BoardHeight; r++ {
		for c := range BoardWidth {
			if c == hole {
				b[r][c] = Empty
			} else {
				b[r][c] = GarbageCell
			}
		}
	}
}

// HasBlocksInBuffer reports whether any cell above the visible field is filled
func (b *Board) HasBlocksInBuffer() bool {
	for r := range BufferHeight {
		for _, c := range b[r] {
			if c != Empty {
				return true
			}
		}
	}
	return false
}

// Visible flattens the visible rows, row-major
func (b *Board) Visible() []Cell {
	out := make([]Cell, 0, BoardWidth*VisibleHeight)
	for r := BufferHeight; r < BoardHeight; r++ {
		out = append(out, b[r][:]...)
	}
	return out
}

func containsRow(rows []int, r int) bool {
	for _, x := range rows {
		if x == r {
			return true
		}
	}
	return false
}
