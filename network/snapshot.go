package network

import (
	"github.com/lixenwraith/blockfall/game"
)

// BoardSnapshot is the opponent's view of a board: visible rows only, with
// the active piece in visible-row coordinates. Board carries cell values as
// plain numbers, row-major from the top visible row
type BoardSnapshot struct {
	Board          []int        `json:"board"`
	CurrentCells   []game.Point `json:"current_cells"`
	CurrentKind    game.Kind    `json:"current_kind"`
	Score          int          `json:"score"`
	Lines          int          `json:"lines"`
	PendingGarbage int          `json:"pending_garbage"`
}

// NewBoardSnapshot projects g for transmission. The active piece is left out
// while no piece is in play (clear animation or grace period)
func NewBoardSnapshot(g *game.Game, pendingGarbage int) BoardSnapshot {
	board := g.Board()
	visible := board.Visible()
	snap := BoardSnapshot{
		Board:          make([]int, len(visible)),
		CurrentKind:    g.Current().Kind,
		Score:          g.Score(),
		Lines:          g.Lines(),
		PendingGarbage: pendingGarbage,
	}
	for i, c := range visible {
		snap.Board[i] = int(c)
	}
	if !g.Animating() && !g.InARE() {
		for _, c := range g.Current().Cells() {
			snap.CurrentCells = append(snap.CurrentCells, game.Point{
				Row: c.Row - game.BufferHeight,
				Col: c.Col,
			})
		}
	}
	return snap
}

// Cell returns the visible cell at (row, col), Empty when out of range
func (s BoardSnapshot) Cell(row, col int) game.Cell {
	if row < 0 || row >= game.VisibleHeight || col < 0 || col >= game.BoardWidth {
		return game.Empty
	}
	i := row*game.BoardWidth + col
	if i >= len(s.Board) || s.Board[i] < 0 {
		return game.Empty
	}
	return game.Cell(s.Board[i])
}
