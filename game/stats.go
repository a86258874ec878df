package game

import (
	"github.com/kamstrup/intmap"
)

// MaxClearLines is the most rows a single lock can clear
const MaxClearLines = 4

// PieceStats tallies spawned pieces per kind and clears per line count
type PieceStats struct {
	spawned *intmap.Map[Kind, int]
	clears  *intmap.Map[int, int]
}

func newPieceStats() *PieceStats {
	return &PieceStats{
		spawned: intmap.New[Kind, int](KindCount),
		clears:  intmap.New[int, int](MaxClearLines),
	}
}

func (s *PieceStats) recordSpawn(k Kind) {
	n, _ := s.spawned.Get(k)
	s.spawned.Put(k, n+1)
}

func (s *PieceStats) recordClear(lines int) {
	n, _ := s.clears.Get(lines)
	s.clears.Put(lines, n+1)
}

// Spawned returns how many pieces of kind k entered play
func (s *PieceStats) Spawned(k Kind) int {
	n, _ := s.spawned.Get(k)
	return n
}

// Clears returns how many locks cleared exactly lines rows
func (s *PieceStats) Clears(lines int) int {
	n, _ := s.clears.Get(lines)
	return n
}

// TotalPieces sums spawns across all kinds
func (s *PieceStats) TotalPieces() int {
	total := 0
	s.spawned.ForEach(func(_ Kind, n int) bool {
		total += n
		return true
	})
	return total
}
