package game

import (
	"time"
)

// Step advances every engine timer against the engine clock: garbage rise,
// clear animation, grace period, lock delay and gravity. It applies at most
// one state transition per timer and reports whether anything changed
func (g *Game) Step() bool {
	if g.gameOver || g.clock.IsPaused() {
		return false
	}
	now := g.clock.Now()
	g.updateElapsed()
	if g.CheckTimeLimit() {
		return true
	}

	changed := g.updateGarbageRise(now)

	if g.clearing != nil {
		elapsed := now.Sub(g.clearing.started)
		if elapsed < LineClearAnimDuration {
			phase := int(elapsed / (LineClearAnimDuration / LineClearAnimPhases))
			if phase != g.clearing.Phase {
				g.clearing.Phase = phase
				changed = true
			}
			return changed
		}
		g.finishClear(now)
		return true
	}

	if g.areActive {
		if now.Sub(g.areStart) < AREDelay || g.rise != nil {
			return changed
		}
		g.areActive = false
		if g.cleared {
			g.setGameOver()
			return true
		}
		g.spawnNext()
		return true
	}

	if g.lockActive && now.Sub(g.lockStart) >= g.settings.LockDelay() {
		g.lockAndBeginClear()
		g.lastGravity = now
		return true
	}

	if now.Sub(g.lastGravity) >= g.DropInterval() {
		g.tick()
		g.lastGravity = now
		return true
	}
	return changed
}

func (g *Game) finishClear(now time.Time) {
	if g.clearing != nil {
		g.board.RemoveRows(g.clearing.Rows)
		g.clearing = nil
	}
	g.beginARE(now)
}

// NextWake returns how long the owning loop may sleep before Step has work
// to do. A paused or finished session reports a one second idle wake
func (g *Game) NextWake() time.Duration {
	if g.gameOver || g.clock.IsPaused() {
		return idleWake
	}
	now := g.clock.Now()
	wake := idleWake

	consider := func(d time.Duration) {
		if d < 0 {
			d = 0
		}
		if d < wake {
			wake = d
		}
	}

	if g.rise != nil {
		next := time.Duration(g.rise.applied+1) * GarbageRiseInterval
		consider(next - now.Sub(g.rise.started))
	}

	switch {
	case g.clearing != nil:
		phaseLen := LineClearAnimDuration / LineClearAnimPhases
		elapsed := now.Sub(g.clearing.started)
		consider(time.Duration(int(elapsed/phaseLen)+1)*phaseLen - elapsed)
	case g.areActive:
		if g.rise != nil {
			break
		}
		consider(AREDelay - now.Sub(g.areStart))
	default:
		consider(g.DropInterval() - now.Sub(g.lastGravity))
		if g.lockActive {
			consider(g.settings.LockDelay() - now.Sub(g.lockStart))
		}
	}

	if rem, ok := g.TimeRemaining(); ok {
		consider(rem)
	}
	return wake
}

// ReceiveGarbage pushes lines garbage rows in at once, each with an empty
// cell at hole
func (g *Game) ReceiveGarbage(lines, hole int) {
	if lines <= 0 {
		return
	}
	g.board.AddGarbage(lines, hole)
	g.emit(EventGarbageReceived, lines)
}

// QueueGarbage schedules incoming garbage. With garbage rise enabled rows are
// pushed in one per GarbageRiseInterval and the next spawn waits for them;
// otherwise they are applied immediately
func (g *Game) QueueGarbage(lines, hole int) {
	if lines <= 0 {
		return
	}
	if !g.settings.GarbageRise {
		g.ReceiveGarbage(lines, hole)
		return
	}
	if g.rise == nil {
		g.rise = &garbageRise{started: g.clock.Now()}
	}
	g.rise.events = append(g.rise.events, riseEvent{lines: lines, hole: hole})
	g.emit(EventGarbageReceived, lines)
}

// updateGarbageRise applies the rows due since the rise started
func (g *Game) updateGarbageRise(now time.Time) bool {
	r := g.rise
	if r == nil {
		return false
	}
	total := r.total()
	target := int(now.Sub(r.started) / GarbageRiseInterval)
	if target > total {
		target = total
	}
	if target <= r.applied {
		return false
	}

	offset := 0
	for _, e := range r.events {
		start, end := offset, offset+e.lines
		offset = end
		if end <= r.applied {
			continue
		}
		from := max(r.applied, start)
		to := min(target, end)
		for range to - from {
			g.board.AddGarbage(1, e.hole)
		}
		if end >= target {
			break
		}
	}
	r.applied = target

	if r.applied >= total {
		g.rise = nil
	}
	return true
}
