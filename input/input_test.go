package input

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/blockfall/game"
)

func newTestController(t *testing.T) (*Controller, *game.MockTimeProvider) {
	t.Helper()
	s := game.DefaultSettings()
	s.LineClearAnim = false
	s.GarbageRise = false
	mt := game.NewMockTimeProvider(time.Unix(1_000_000, 0))
	g := game.New(s, game.ModeMarathon, mt, rand.New(rand.NewPCG(7, 11)))
	require.False(t, g.GameOver())
	return NewController(g), mt
}

func maxCol(p game.Piece) int {
	m := -1
	for _, c := range p.Cells() {
		m = max(m, c.Col)
	}
	return m
}

func TestRepeaterDelayIntervalRelease(t *testing.T) {
	var r Repeater
	t0 := time.Unix(0, 0)
	at := func(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

	assert.True(t, r.Press(1, at(0)))
	assert.False(t, r.Press(1, at(60)))
	assert.False(t, r.Press(1, at(120)))
	assert.Equal(t, 0, r.Update(at(150), true), "still within delay")
	assert.False(t, r.Press(1, at(160)))

	assert.Equal(t, 1, r.Update(at(170), true), "delay elapsed")
	assert.True(t, r.Charged())
	assert.Equal(t, 0, r.Update(at(190), true))
	assert.Equal(t, 1, r.Update(at(204), true), "interval elapsed")

	assert.Equal(t, 0, r.Update(at(260), true), "no key event for the release window")
	assert.Equal(t, 0, r.Direction())
	assert.False(t, r.Charged())
}

func TestRepeaterDirectionChangeRestarts(t *testing.T) {
	var r Repeater
	t0 := time.Unix(0, 0)

	require.True(t, r.Press(-1, t0))
	assert.True(t, r.Press(1, t0.Add(50*time.Millisecond)))
	assert.Equal(t, 1, r.Direction())
	assert.False(t, r.Charged())
}

func TestRepeaterHoldsWhileBlocked(t *testing.T) {
	var r Repeater
	t0 := time.Unix(0, 0)
	r.Press(1, t0)
	r.Press(1, t0.Add(90*time.Millisecond))

	assert.Equal(t, 0, r.Update(t0.Add(170*time.Millisecond), false))
	assert.False(t, r.Charged())
	assert.Equal(t, 1, r.Direction())
}

func TestRepeaterNextWake(t *testing.T) {
	var r Repeater
	t0 := time.Unix(0, 0)

	_, ok := r.NextWake(t0)
	assert.False(t, ok)

	r.Press(1, t0)
	d, ok := r.NextWake(t0.Add(10 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, 90*time.Millisecond, d)
}

func TestKeyMapDefaults(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name string
		ev   *tcell.EventKey
		want Action
	}{
		{"left arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), ActionMoveLeft},
		{"right arrow", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), ActionMoveRight},
		{"down arrow", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), ActionSoftDrop},
		{"up arrow", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), ActionRotateCW},
		{"x", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), ActionRotateCW},
		{"upper X", tcell.NewEventKey(tcell.KeyRune, 'X', tcell.ModNone), ActionRotateCW},
		{"z", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), ActionRotateCCW},
		{"c", tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModNone), ActionHold},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), ActionHardDrop},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionPause},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), ActionQuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := km.Lookup(tt.ev)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := km.Lookup(tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone))
	assert.False(t, ok)
}

func TestKeyMapApply(t *testing.T) {
	km := DefaultKeyMap()
	err := km.Apply(map[string]string{
		"a":     "move_left",
		"Left":  "none",
		"space": "Hold",
	})
	require.NoError(t, err)

	a, ok := km.Lookup(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
	require.True(t, ok)
	assert.Equal(t, ActionMoveLeft, a)

	_, ok = km.Lookup(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	assert.False(t, ok)

	a, _ = km.Lookup(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	assert.Equal(t, ActionHold, a)
}

func TestKeyMapApplyRejectsUnknown(t *testing.T) {
	km := DefaultKeyMap()

	assert.Error(t, km.Apply(map[string]string{"a": "teleport"}))
	assert.Error(t, km.Apply(map[string]string{"abc": "hold"}))

	_, ok := km.Lookup(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
	assert.False(t, ok, "failed apply must not change bindings")
}

func TestActionNames(t *testing.T) {
	a, ok := ActionByName(" Rotate_CCW ")
	require.True(t, ok)
	assert.Equal(t, ActionRotateCCW, a)
	assert.Equal(t, "rotate_ccw", a.String())

	_, ok = ActionByName("jump")
	assert.False(t, ok)
}

func TestControllerShift(t *testing.T) {
	c, _ := newTestController(t)
	col := c.Game().Current().Col

	c.Handle(ActionMoveLeft)
	assert.Equal(t, col-1, c.Game().Current().Col)

	// A repeated event for the held direction only refreshes the repeater
	c.Handle(ActionMoveLeft)
	assert.Equal(t, col-1, c.Game().Current().Col)

	c.Handle(ActionMoveRight)
	assert.Equal(t, col, c.Game().Current().Col)
}

func TestControllerBuffersDuringGracePeriod(t *testing.T) {
	c, mt := newTestController(t)
	g := c.Game()

	c.Handle(ActionHardDrop)
	require.True(t, g.InARE())

	upcoming := g.NextKinds()[0]
	c.Handle(ActionHold)
	c.Handle(ActionRotateCW)
	_, held := g.HeldKind()
	assert.False(t, held, "hold is buffered, not applied")

	mt.Advance(game.AREDelay)
	c.Update()
	require.True(t, g.PieceActive())

	heldKind, held := g.HeldKind()
	require.True(t, held)
	assert.Equal(t, upcoming, heldKind)
	assert.True(t, g.HoldUsed())
	if g.Current().Kind != game.KindO {
		assert.Equal(t, game.RotationRight, g.Current().Rotation)
	}
}

func TestControllerChargedRepeatShiftsToWallOnSpawn(t *testing.T) {
	c, mt := newTestController(t)
	g := c.Game()

	step := func(ms int) { mt.Advance(time.Duration(ms) * time.Millisecond) }

	c.Handle(ActionMoveRight)
	step(60)
	c.Handle(ActionMoveRight)
	step(60)
	c.Handle(ActionMoveRight)
	step(40)
	c.Handle(ActionMoveRight)
	step(10)
	c.Update()
	require.True(t, c.repeat.Charged())

	c.Handle(ActionHardDrop)
	require.True(t, g.InARE())

	step(30)
	c.Handle(ActionMoveRight)
	step(50)
	c.Handle(ActionMoveRight)
	step(20)
	c.Update()

	require.True(t, g.PieceActive())
	assert.Equal(t, game.BoardWidth-1, maxCol(g.Current()))
}

func TestControllerPauseBlocksInput(t *testing.T) {
	c, _ := newTestController(t)
	g := c.Game()
	col := g.Current().Col

	c.Handle(ActionPause)
	require.True(t, g.Paused())
	c.Handle(ActionMoveLeft)
	c.Handle(ActionHardDrop)
	assert.Equal(t, col, g.Current().Col)
	assert.False(t, g.InARE())

	c.Handle(ActionPause)
	assert.False(t, g.Paused())
	c.Handle(ActionMoveLeft)
	assert.Equal(t, col-1, g.Current().Col)
}

func TestControllerForfeit(t *testing.T) {
	c, _ := newTestController(t)
	c.Handle(ActionForfeit)
	assert.True(t, c.Game().GameOver())
}

func TestControllerNextWakeIncludesRepeat(t *testing.T) {
	c, mt := newTestController(t)
	c.Handle(ActionMoveLeft)
	mt.Advance(30 * time.Millisecond)
	assert.Equal(t, 70*time.Millisecond, c.NextWake())
}
