// Package garbage implements the versus attack economy: how many garbage
// rows a clear sends and the pending queue incoming attacks wait in
package garbage

import (
	"github.com/lixenwraith/blockfall/game"
)

// AllClearAttack is the flat attack for a clear that empties the board
const AllClearAttack = 10

// Event is one pending attack: a row count and the column left open in each row
type Event struct {
	Lines int `json:"lines"`
	Hole  int `json:"hole_column"`
}

func comboBonus(combo int) int {
	switch {
	case combo <= 1:
		return 0
	case combo <= 3:
		return 1
	case combo <= 5:
		return 2
	case combo <= 7:
		return 3
	case combo <= 10:
		return 4
	default:
		return 5
	}
}

func baseAttack(lines int, spin game.SpinKind) int {
	switch spin {
	case game.SpinMini:
		if lines == 2 {
			return 1
		}
		return 0
	case game.SpinFull:
		switch lines {
		case 1:
			return 2
		case 2:
			return 4
		case 3:
			return 6
		default:
			return 0
		}
	default:
		switch lines {
		case 2:
			return 1
		case 3:
			return 2
		case 4:
			return 4
		default:
			return 0
		}
	}
}

// CalculateAttack converts a lock result into outgoing garbage rows
func CalculateAttack(r game.ClearResult) int {
	if r.Lines == 0 {
		return 0
	}
	if r.AllClear {
		return AllClearAttack
	}
	attack := baseAttack(r.Lines, r.Spin)
	if r.BackToBack {
		attack++
	}
	return attack + comboBonus(r.Combo)
}
