package game

import (
	"fmt"
	"strings"
	"time"
)

func lineClearBase(lines int, spin SpinKind) int {
	switch spin {
	case SpinMini:
		switch lines {
		case 1:
			return 200
		case 2:
			return 400
		default:
			return 100
		}
	case SpinFull:
		switch lines {
		case 1:
			return 800
		case 2:
			return 1200
		case 3:
			return 1600
		default:
			return 400
		}
	default:
		switch lines {
		case 1:
			return 100
		case 2:
			return 300
		case 3:
			return 500
		case 4:
			return 800
		default:
			return 0
		}
	}
}

func perfectClearBase(lines int, b2bTetris bool) int {
	switch lines {
	case 1:
		return 800
	case 2:
		return 1200
	case 3:
		return 1800
	case 4:
		if b2bTetris {
			return 3200
		}
		return 2000
	default:
		return 0
	}
}

var clearNames = [...]string{"", "Single", "Double", "Triple", "Tetris"}

func clearLabel(lines int, spin SpinKind, b2b, allClear bool, combo int) string {
	var sb strings.Builder
	if b2b {
		sb.WriteString("B2B ")
	}
	switch spin {
	case SpinMini:
		sb.WriteString("Mini T-Spin ")
	case SpinFull:
		sb.WriteString("T-Spin ")
	}
	if lines < len(clearNames) {
		sb.WriteString(clearNames[lines])
	}
	if allClear {
		sb.WriteString(" ALL CLEAR")
	}
	if combo > 0 {
		fmt.Fprintf(&sb, " Combo x%d", combo)
	}
	return sb.String()
}

// lockAndBeginClear commits the current piece, scores the lock and starts
// either the clear animation or the grace period
func (g *Game) lockAndBeginClear() {
	spin := DetectSpin(&g.board, g.current, g.last == actionRotate)
	g.lockActive = false
	g.board.Place(g.current)

	full := g.board.FullRows()
	n := len(full)
	now := g.clock.Now()

	if n == 0 {
		g.combo = -1
		result := ClearResult{Spin: spin, Combo: -1}
		if spin != SpinNone {
			base := 400
			if spin == SpinMini {
				base = 100
			}
			result.Points = base * g.level
			result.Label = strings.TrimSpace(clearLabel(0, spin, false, false, 0))
			g.score += result.Points
			g.recordClear(result, now)
			g.emit(EventSpin, int(spin))
		}
		g.events = append(g.events, Event{Type: EventLock, Result: result})
		g.beginARE(now)
		return
	}

	g.lines += n
	g.combo++
	difficult := n == 4 || spin != SpinNone
	b2b := difficult && g.backToBack

	base := lineClearBase(n, spin)
	bonus := 0
	if b2b {
		bonus = base / 2
	}
	points := (base + bonus) * g.level
	if g.combo > 0 {
		points += 50 * g.combo * g.level
	}

	allClear := g.board.EmptyExcept(full)
	if allClear {
		points += perfectClearBase(n, b2b) * g.level
	}
	g.score += points

	result := ClearResult{
		Lines:      n,
		Spin:       spin,
		BackToBack: b2b,
		Combo:      g.combo,
		AllClear:   allClear,
		Points:     points,
		Label:      clearLabel(n, spin, b2b, allClear, g.combo),
	}
	g.recordClear(result, now)
	g.stats.recordClear(n)
	g.backToBack = difficult

	g.events = append(g.events, Event{Type: EventLock, Result: result})
	g.emit(EventLineClear, n)
	if spin != SpinNone {
		g.emit(EventSpin, int(spin))
	}
	if allClear {
		g.emit(EventAllClear, n)
	}
	if g.combo > 0 {
		g.emit(EventCombo, g.combo)
	}
	if b2b {
		g.emit(EventBackToBack, n)
	}

	g.advanceLevel()

	switch g.mode {
	case ModeMarathon:
		if g.lines >= g.settings.MarathonGoal {
			g.cleared = true
		}
	case ModeSprint:
		if g.lines >= g.settings.SprintGoal {
			g.cleared = true
		}
	}

	if g.settings.LineClearAnim {
		g.clearing = &ClearAnimation{Rows: full, started: now}
		return
	}
	g.board.RemoveRows(full)
	g.beginARE(now)
}

func (g *Game) recordClear(r ClearResult, at time.Time) {
	g.lastClear = r
	g.hasLastClear = true
	g.lastClearAt = at
}

func (g *Game) advanceLevel() {
	if !g.mode.levelsAdvance() {
		return
	}
	prev := g.level
	next := g.startLevel + g.lines/10
	limit := g.settings.LevelCap
	switch {
	case limit > 0 && g.startLevel > limit:
		next = g.startLevel
	case limit > 0 && next > limit:
		next = limit
	}
	g.level = next
	if g.level > prev {
		g.emit(EventLevelUp, g.level)
	}
}

func (g *Game) beginARE(now time.Time) {
	g.areActive = true
	g.areStart = now
}
