package game

import (
	"math"
	"time"
)

// refreshLockDelay restarts a running lock delay after a successful move or
// rotation while grounded, until the reset cap is spent. A piece that left
// the ground loses its lock delay
func (g *Game) refreshLockDelay() {
	if !g.lockActive {
		return
	}
	if !g.onGround() {
		g.lockActive = false
		return
	}
	if g.settings.MoveReset < 0 || g.moveResets < g.settings.MoveReset {
		g.lockStart = g.clock.Now()
		g.moveResets++
	}
}

func (g *Game) tryMove(dr, dc int) bool {
	moved := g.current.Shifted(dr, dc)
	if !g.board.Fits(moved) {
		return false
	}
	g.current = moved
	g.last = actionMove
	g.refreshLockDelay()
	return true
}

// Shift moves the active piece one column; dir is -1 for left, +1 for right
func (g *Game) Shift(dir int) bool {
	if !g.PieceActive() {
		return false
	}
	if g.tryMove(0, dir) {
		g.emit(EventMove, dir)
		return true
	}
	return false
}

func (g *Game) MoveLeft() bool  { return g.Shift(-1) }
func (g *Game) MoveRight() bool { return g.Shift(1) }

// ShiftToWall slides the active piece as far as it goes toward dir and
// returns the number of columns moved
func (g *Game) ShiftToWall(dir int) int {
	if !g.PieceActive() {
		return 0
	}
	n := 0
	for g.tryMove(0, dir) {
		n++
	}
	if n > 0 {
		g.emit(EventMove, dir)
	}
	return n
}

func (g *Game) rotate(to Rotation) bool {
	if !g.PieceActive() {
		return false
	}
	rotated, ok := ResolveRotation(&g.board, g.current, to, g.settings.SRS)
	if !ok {
		return false
	}
	g.current = rotated
	g.last = actionRotate
	g.refreshLockDelay()
	g.emit(EventRotate, int(to))
	return true
}

// RotateCW turns the active piece clockwise, applying kicks when enabled
func (g *Game) RotateCW() bool { return g.rotate(g.current.Rotation.CW()) }

// RotateCCW turns the active piece counter-clockwise
func (g *Game) RotateCCW() bool { return g.rotate(g.current.Rotation.CCW()) }

// SoftDrop moves the piece down one row for one point
func (g *Game) SoftDrop() bool {
	if !g.PieceActive() {
		return false
	}
	if !g.tryMove(1, 0) {
		return false
	}
	g.score++
	g.emit(EventSoftDrop, 1)
	return true
}

// HardDrop drops the piece to the floor for two points per row and locks it
// at once. It returns the points awarded for the drop distance
func (g *Game) HardDrop() int {
	if !g.PieceActive() {
		return 0
	}
	cells := 0
	for g.tryMove(1, 0) {
		cells++
	}
	points := cells * 2
	g.score += points
	g.lockActive = false
	g.emit(EventHardDrop, cells)
	g.lockAndBeginClear()
	return points
}

// Hold swaps the active piece with the held kind, or stashes it and draws
// the next one. Allowed once per piece
func (g *Game) Hold() bool {
	if !g.PieceActive() || !g.settings.HoldEnabled || g.holdUsed {
		return false
	}
	g.holdUsed = true
	g.lockActive = false

	cur := g.current.Kind
	if g.hasHeld {
		g.current = NewPiece(g.held)
	} else {
		g.current = NewPiece(g.popNext())
		g.stats.recordSpawn(g.current.Kind)
	}
	g.held, g.hasHeld = cur, true
	g.last = actionNone
	g.moveResets = 0
	g.lastGravity = g.clock.Now()
	g.emit(EventHold, int(cur))

	if !g.board.Fits(g.current) {
		g.setGameOver()
	}
	return true
}

func timePerRow(level int) float64 {
	lvl := float64(level)
	return math.Pow(0.8-(lvl-1)*0.007, lvl-1)
}

// Gravity returns the fall rate in rows per 60 Hz frame, capped at 20
func (g *Game) Gravity() float64 {
	return math.Min(1/(timePerRow(g.level)*60), maxGravity)
}

// DropInterval is the time between gravity ticks
func (g *Game) DropInterval() time.Duration {
	if g.Gravity() >= 1 {
		return frameInterval
	}
	return time.Duration(timePerRow(g.level) * float64(time.Second))
}

func (g *Game) startLockDelay() {
	if !g.lockActive {
		g.lockActive = true
		g.lockStart = g.clock.Now()
	}
}

// tick applies one gravity step, starting the lock delay once the piece rests
func (g *Game) tick() {
	grav := g.Gravity()
	switch {
	case grav >= maxGravity:
		for g.tryMove(1, 0) {
		}
		g.startLockDelay()
	case grav >= 1:
		rows := int(math.Floor(grav))
		for range rows {
			if !g.tryMove(1, 0) {
				g.startLockDelay()
				return
			}
		}
	default:
		if !g.tryMove(1, 0) {
			g.startLockDelay()
		}
	}
}
