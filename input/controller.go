package input

import (
	"time"

	"github.com/lixenwraith/blockfall/game"
)

// Controller feeds discrete actions into one game session and owns the input
// side timers: horizontal auto-repeat and the rotate/hold presses buffered
// while no piece is in play
type Controller struct {
	game   *game.Game
	clock  game.TimeProvider
	repeat Repeater

	bufferedRotate int // 1 cw, -1 ccw, 0 none
	bufferedHold   bool
}

// NewController binds a controller to g, timing input against g's clock
func NewController(g *game.Game) *Controller {
	return &Controller{game: g, clock: g.Clock()}
}

// Game returns the controlled session
func (c *Controller) Game() *game.Game { return c.game }

// Reset drops held and buffered input
func (c *Controller) Reset() {
	c.repeat.Release()
	c.bufferedRotate = 0
	c.bufferedHold = false
}

// waiting reports a live session between pieces
func (c *Controller) waiting() bool {
	g := c.game
	return !g.GameOver() && !g.Paused() && !g.PieceActive()
}

// Handle applies one action. Pause toggles engine time; quit is left to the
// caller
func (c *Controller) Handle(a Action) {
	g := c.game
	if g.GameOver() {
		return
	}

	switch a {
	case ActionPause:
		if g.Paused() {
			g.Resume()
		} else {
			g.Pause()
			c.Reset()
		}
		return
	case ActionForfeit:
		g.Forfeit()
		return
	}
	if g.Paused() {
		return
	}

	switch a {
	case ActionMoveLeft, ActionMoveRight:
		dir := a.direction()
		if c.repeat.Press(dir, c.clock.Now()) && g.PieceActive() {
			g.Shift(dir)
		}
	case ActionSoftDrop:
		g.SoftDrop()
	case ActionHardDrop:
		g.HardDrop()
	case ActionRotateCW:
		if c.waiting() {
			c.bufferedRotate = 1
		} else {
			g.RotateCW()
		}
	case ActionRotateCCW:
		if c.waiting() {
			c.bufferedRotate = -1
		} else {
			g.RotateCCW()
		}
	case ActionHold:
		if c.waiting() {
			c.bufferedHold = true
		} else {
			g.Hold()
		}
	}
}

// Update runs auto-repeat and advances the engine. When a piece spawns, the
// buffered hold and rotation are applied to it and a charged auto-repeat
// carries it to the wall
func (c *Controller) Update() {
	g := c.game
	now := c.clock.Now()

	if dir := c.repeat.Update(now, g.PieceActive()); dir != 0 {
		g.Shift(dir)
	}

	wasWaiting := c.waiting()
	g.Step()
	if wasWaiting && g.PieceActive() {
		c.onSpawn(now)
	}
}

func (c *Controller) onSpawn(now time.Time) {
	g := c.game
	if c.bufferedHold {
		c.bufferedHold = false
		g.Hold()
	}
	switch c.bufferedRotate {
	case 1:
		g.RotateCW()
	case -1:
		g.RotateCCW()
	}
	c.bufferedRotate = 0

	if c.repeat.Charged() {
		g.ShiftToWall(c.repeat.Direction())
		c.repeat.Rearm(now)
	}
}

// NextWake returns how long the owning loop may sleep
func (c *Controller) NextWake() time.Duration {
	wake := c.game.NextWake()
	if d, ok := c.repeat.NextWake(c.clock.Now()); ok && d < wake {
		wake = d
	}
	return wake
}
