package game

import (
	"math/rand/v2"
	"time"
)

const (
	LineClearAnimDuration = 300 * time.Millisecond
	LineClearAnimPhases   = 3
	AREDelay              = 100 * time.Millisecond
	GarbageRiseInterval   = 40 * time.Millisecond

	// frameInterval is one 60 Hz frame, the gravity cadence at 1G and above
	frameInterval = 16667 * time.Microsecond
	maxGravity    = 20.0
	idleWake      = time.Second
)

type lastAction uint8

const (
	actionNone lastAction = iota
	actionMove
	actionRotate
)

// ClearResult describes one lock: lines removed, spin class, streak and
// combo state, perfect clear and the awarded points
type ClearResult struct {
	Lines      int
	Spin       SpinKind
	BackToBack bool // the lock extended an active back-to-back streak
	Combo      int
	AllClear   bool
	Points     int
	Label      string
}

// IsSpin reports a full or mini T-spin
func (r ClearResult) IsSpin() bool {
	return r.Spin != SpinNone
}

// ClearAnimation is the row flash shown between lock and removal
type ClearAnimation struct {
	Rows    []int
	Phase   int
	started time.Time
}

type riseEvent struct {
	lines, hole int
}

type garbageRise struct {
	events  []riseEvent
	started time.Time
	applied int
}

func (r *garbageRise) total() int {
	n := 0
	for _, e := range r.events {
		n += e.lines
	}
	return n
}

// Game is one player's session: the board, active piece, timers and score.
// It is owned by a single loop and is not safe for concurrent use
type Game struct {
	settings Settings
	mode     Mode
	clock    *PausableClock
	bag      *Bag
	stats    *PieceStats

	board      Board
	current    Piece
	next       []Kind
	held       Kind
	hasHeld    bool
	holdUsed   bool
	score      int
	lines      int
	level      int
	startLevel int
	combo      int
	backToBack bool
	last       lastAction

	lastClear    ClearResult
	hasLastClear bool
	lastClearAt  time.Time

	lockActive bool
	lockStart  time.Time
	moveResets int

	lastGravity time.Time

	clearing  *ClearAnimation
	areActive bool
	areStart  time.Time
	rise      *garbageRise

	started  time.Time
	elapsed  time.Duration
	cleared  bool
	gameOver bool

	events []Event
}

// New creates a session and spawns its first piece. tp nil selects the
// monotonic clock; rng nil selects a randomly seeded source
func New(settings Settings, mode Mode, tp TimeProvider, rng *rand.Rand) *Game {
	clock := NewPausableClock(tp)
	now := clock.Now()

	g := &Game{
		settings:    settings,
		mode:        mode,
		clock:       clock,
		bag:         NewBag(settings.BagRandomizer, rng),
		stats:       newPieceStats(),
		level:       settings.Level,
		startLevel:  settings.Level,
		combo:       -1,
		lastGravity: now,
		started:     now,
	}
	if g.level < 1 {
		g.level = 1
		g.startLevel = 1
	}

	first := g.bag.Next()
	g.next = make([]Kind, 0, MaxNextCount)
	for range MaxNextCount {
		g.next = append(g.next, g.bag.Next())
	}
	g.current = NewPiece(first)
	g.stats.recordSpawn(first)
	if !g.board.Fits(g.current) {
		g.setGameOver()
	}
	return g
}

func (g *Game) Settings() Settings     { return g.settings }
func (g *Game) Mode() Mode             { return g.mode }
func (g *Game) Clock() *PausableClock  { return g.clock }
func (g *Game) Stats() *PieceStats     { return g.stats }
func (g *Game) Board() Board           { return g.board }
func (g *Game) Current() Piece         { return g.current }
func (g *Game) Score() int             { return g.score }
func (g *Game) Lines() int             { return g.lines }
func (g *Game) Level() int             { return g.level }
func (g *Game) Combo() int             { return g.combo }
func (g *Game) BackToBack() bool       { return g.backToBack }
func (g *Game) HoldUsed() bool         { return g.holdUsed }
func (g *Game) GameOver() bool         { return g.gameOver }
func (g *Game) Elapsed() time.Duration { return g.elapsed }

// ObjectiveCleared reports that the mode goal was reached; the session ends
// when the current grace period expires
func (g *Game) ObjectiveCleared() bool { return g.cleared }

// HeldKind returns the stashed kind, if any
func (g *Game) HeldKind() (Kind, bool) {
	return g.held, g.hasHeld
}

// NextKinds returns the visible part of the lookahead queue
func (g *Game) NextKinds() []Kind {
	n := g.settings.NextCount
	if n > len(g.next) {
		n = len(g.next)
	}
	if n < 0 {
		n = 0
	}
	out := make([]Kind, n)
	copy(out, g.next[:n])
	return out
}

// LastClear returns the most recent scoring lock (a line clear or a spin)
// and when it happened
func (g *Game) LastClear() (ClearResult, time.Time, bool) {
	return g.lastClear, g.lastClearAt, g.hasLastClear
}

// ClearAnimation returns the running row flash, if any
func (g *Game) ClearAnimation() (ClearAnimation, bool) {
	if g.clearing == nil {
		return ClearAnimation{}, false
	}
	return *g.clearing, true
}

// Animating reports a running line clear flash
func (g *Game) Animating() bool { return g.clearing != nil }

// InARE reports the post-lock grace period, during which no piece is active
func (g *Game) InARE() bool { return g.areActive }

// GarbageRising reports garbage rows still being pushed in
func (g *Game) GarbageRising() bool { return g.rise != nil }

// PieceActive reports whether the current piece accepts input
func (g *Game) PieceActive() bool {
	return !g.gameOver && g.clearing == nil && !g.areActive && !g.clock.IsPaused()
}

// Pause freezes engine time
func (g *Game) Pause() { g.clock.Pause() }

// Resume continues engine time from where it was frozen
func (g *Game) Resume() { g.clock.Resume() }

// Paused reports whether engine time is frozen
func (g *Game) Paused() bool { return g.clock.IsPaused() }

// Forfeit ends the session immediately
func (g *Game) Forfeit() {
	if !g.gameOver {
		g.setGameOver()
	}
}

// DrainEvents returns and clears the queued engine events
func (g *Game) DrainEvents() []Event {
	if len(g.events) == 0 {
		return nil
	}
	out := g.events
	g.events = nil
	return out
}

// GhostRow returns the lowest pivot row the current piece can reach
func (g *Game) GhostRow() int {
	ghost := g.current
	for {
		ghost.Row++
		if !g.board.Fits(ghost) {
			return ghost.Row - 1
		}
	}
}

// TimeRemaining returns the time left in an Ultra session
func (g *Game) TimeRemaining() (time.Duration, bool) {
	if g.mode != ModeUltra {
		return 0, false
	}
	limit := time.Duration(g.settings.UltraTime) * time.Second
	if g.elapsed >= limit {
		return 0, true
	}
	return limit - g.elapsed, true
}

// CheckTimeLimit ends an Ultra session whose time has run out, reporting
// whether it did
func (g *Game) CheckTimeLimit() bool {
	g.updateElapsed()
	if g.gameOver || g.mode != ModeUltra {
		return false
	}
	if rem, _ := g.TimeRemaining(); rem > 0 {
		return false
	}
	g.cleared = true
	g.setGameOver()
	return true
}

func (g *Game) updateElapsed() {
	if g.gameOver {
		return
	}
	g.elapsed = g.clock.Now().Sub(g.started)
}

func (g *Game) emit(t EventType, value int) {
	g.events = append(g.events, Event{Type: t, Value: value})
}

func (g *Game) setGameOver() {
	g.gameOver = true
	g.lockActive = false
	g.emit(EventGameOver, g.score)
}

func (g *Game) popNext() Kind {
	if len(g.next) == 0 {
		return g.bag.Next()
	}
	k := g.next[0]
	copy(g.next, g.next[1:])
	g.next[len(g.next)-1] = g.bag.Next()
	return k
}

func (g *Game) spawnNext() {
	k := g.popNext()
	g.current = NewPiece(k)
	g.holdUsed = false
	g.last = actionNone
	g.lockActive = false
	g.moveResets = 0
	g.lastGravity = g.clock.Now()
	g.stats.recordSpawn(k)
	g.emit(EventSpawn, int(k))
	if !g.board.Fits(g.current) {
		g.setGameOver()
	}
}

func (g *Game) onGround() bool {
	return !g.board.Fits(g.current.Shifted(1, 0))
}
