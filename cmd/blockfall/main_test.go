package main

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/input"
	"github.com/lixenwraith/blockfall/status"
	"github.com/lixenwraith/blockfall/versus"
)

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestPumpActionsSolo(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tcell.Event, 4)
	actions := make(chan input.Action, 4)
	d := newDisplay(tcell.NewSimulationScreen(""))

	done := make(chan struct{})
	go func() {
		pumpActions(ctx, cancel, input.DefaultKeyMap(), d, events, actions, nil)
		close(done)
	}()

	events <- runeKey('x')
	events <- runeKey('?')
	events <- tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)
	assert.Equal(t, input.ActionRotateCW, <-actions)
	assert.Equal(t, input.ActionMoveLeft, <-actions)

	events <- tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("quit did not stop the pump")
	}
	assert.Error(t, ctx.Err())
}

func TestPumpActionsVersusPhases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tcell.Event, 4)
	actions := make(chan input.Action, 4)
	decisions := make(chan versus.Decision, 4)
	d := newDisplay(tcell.NewSimulationScreen(""))
	done := make(chan struct{})
	go func() {
		pumpActions(ctx, cancel, input.DefaultKeyMap(), d, events, actions, decisions)
		close(done)
	}()

	d.phase.Store(uint32(versus.PhasePlaying))
	events <- runeKey('c')
	require.Equal(t, input.ActionHold, <-actions)

	d.phase.Store(uint32(versus.PhaseResult))
	events <- runeKey('r')
	events <- runeKey('q')
	assert.Equal(t, versus.DecisionRematch, <-decisions)
	assert.Equal(t, versus.DecisionLeave, <-decisions)
	assert.NoError(t, ctx.Err())

	// Before play, moves are dropped and quit abandons the lobby
	d.phase.Store(uint32(versus.PhaseCountdown))
	events <- runeKey(' ')
	events <- tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("quit did not stop the pump")
	}
	assert.Empty(t, actions)
	assert.Error(t, ctx.Err())
}

func TestPublishPieceStats(t *testing.T) {
	reg := status.NewRegistry()
	mt := game.NewMockTimeProvider(time.Unix(0, 0))
	g := game.New(game.DefaultSettings(), game.ModeMarathon, mt, nil)
	first := g.Current().Kind

	publishPieceStats(reg, "solo", g.Stats())
	assert.Equal(t, int64(1), reg.Ints.Get("solo.spawned."+first.String()).Load())
	for n := 1; n <= game.MaxClearLines; n++ {
		assert.Contains(t, reg.Snapshot(), "solo.clears."+strconv.Itoa(n))
	}

	g.HardDrop()
	mt.Advance(game.AREDelay)
	g.Step()
	publishPieceStats(reg, "solo", g.Stats())
	var total int64
	for k := range game.KindCount {
		total += reg.Ints.Get("solo.spawned." + game.Kind(k).String()).Load()
	}
	assert.Equal(t, int64(2), total)
}

// screenText returns everything drawn on s, one line per row
func screenText(s tcell.Screen) string {
	w, h := s.Size()
	var b strings.Builder
	for y := range h {
		for x := range w {
			r, _, _, _ := s.GetContent(x, y)
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestDrawSoloShowsPauseTotal(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(100, 40)
	d := newDisplay(screen)

	mt := game.NewMockTimeProvider(time.Unix(0, 0))
	g := game.New(game.DefaultSettings(), game.ModeMarathon, mt, nil)
	d.drawSolo(g)
	assert.NotContains(t, screenText(screen), "Paused")

	g.Pause()
	mt.Advance(2 * time.Second)
	d.drawSolo(g)
	text := screenText(screen)
	assert.Contains(t, text, "PAUSED")
	assert.Contains(t, text, "Paused 2s")
}

func TestPresentFlagsStalledOpponent(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(120, 40)
	d := newDisplay(screen)

	d.Present(versus.Frame{Phase: versus.PhasePlaying, OpponentStalled: true})
	assert.Contains(t, screenText(screen), "Opponent not responding")
	assert.Equal(t, versus.PhasePlaying, d.Phase())
}
