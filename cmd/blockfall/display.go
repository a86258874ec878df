package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/network"
	"github.com/lixenwraith/blockfall/versus"
)

// Layout, in terminal cells. Each board column is two cells wide
const (
	boardX     = 2
	boardY     = 1
	panelX     = boardX + game.BoardWidth*2 + 4
	opponentX  = panelX + 20
	blankRunes = "  "
)

var (
	styleBase   = tcell.StyleDefault
	styleFrame  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleGhost  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleText   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleAccent = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

// cellColors indexes by game.Cell: Empty, the seven kinds, garbage
var cellColors = [...]tcell.Color{
	tcell.ColorDefault,
	tcell.ColorAqua,    // I
	tcell.ColorYellow,  // O
	tcell.ColorPurple,  // T
	tcell.ColorGreen,   // S
	tcell.ColorRed,     // Z
	tcell.ColorOrange,  // L
	tcell.ColorBlue,    // J
	tcell.ColorDimGray, // garbage
}

func cellStyle(c game.Cell) tcell.Style {
	if int(c) >= len(cellColors) || c == game.Empty {
		return styleBase
	}
	return styleBase.Background(cellColors[c])
}

// display draws sessions on a tcell screen. The phase it last drew is read
// by the input goroutine to route keys
type display struct {
	screen tcell.Screen
	phase  atomic.Uint32
}

func newDisplay(s tcell.Screen) *display {
	d := &display{screen: s}
	d.phase.Store(uint32(versus.PhaseLobby))
	return d
}

func (d *display) Phase() versus.Phase { return versus.Phase(d.phase.Load()) }

func (d *display) text(x, y int, style tcell.Style, format string, args ...any) {
	for i, r := range fmt.Sprintf(format, args...) {
		d.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (d *display) block(x, y int, style tcell.Style, glyph string) {
	for i, r := range glyph {
		d.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (d *display) well(x, y int) {
	for r := 0; r < game.VisibleHeight; r++ {
		d.screen.SetContent(x-1, y+r, '│', nil, styleFrame)
		d.screen.SetContent(x+game.BoardWidth*2, y+r, '│', nil, styleFrame)
	}
	for c := -1; c <= game.BoardWidth*2; c++ {
		d.screen.SetContent(x+c, y+game.VisibleHeight, '─', nil, styleFrame)
	}
}

// drawGame renders the visible field of g with its ghost and active piece
func (d *display) drawGame(g *game.Game, x, y int) {
	d.well(x, y)
	board := g.Board()
	flashing := map[int]bool{}
	if anim, ok := g.ClearAnimation(); ok && anim.Phase%2 == 0 {
		for _, r := range anim.Rows {
			flashing[r] = true
		}
	}

	for r := 0; r < game.VisibleHeight; r++ {
		row := r + game.BufferHeight
		for c := 0; c < game.BoardWidth; c++ {
			style := cellStyle(board[row][c])
			if flashing[row] {
				style = styleBase.Background(tcell.ColorWhite)
			}
			d.block(x+c*2, y+r, style, blankRunes)
		}
	}

	if !g.PieceActive() && !g.Paused() {
		return
	}
	cur := g.Current()
	if g.Settings().Ghost {
		ghost := cur.Shifted(g.GhostRow()-cur.Row, 0)
		for _, p := range ghost.Cells() {
			if vr := p.Row - game.BufferHeight; vr >= 0 {
				d.block(x+p.Col*2, y+vr, styleGhost, "[]")
			}
		}
	}
	for _, p := range cur.Cells() {
		if vr := p.Row - game.BufferHeight; vr >= 0 {
			d.block(x+p.Col*2, y+vr, cellStyle(cur.Kind.Cell()), blankRunes)
		}
	}
}

// drawPanel renders the side panel for g
func (d *display) drawPanel(g *game.Game, x, y, pending int) {
	line := y
	row := func(format string, args ...any) {
		d.text(x, line, styleText, format, args...)
		line++
	}
	row("Score  %d", g.Score())
	row("Lines  %d", g.Lines())
	row("Level  %d", g.Level())
	row("Time   %s", g.Elapsed().Truncate(time.Second))
	if rem, ok := g.TimeRemaining(); ok {
		row("Left   %s", rem.Truncate(time.Second))
	}
	if held, ok := g.HeldKind(); ok {
		row("Hold   %s", held)
	} else {
		row("Hold   -")
	}
	next := ""
	for _, k := range g.NextKinds() {
		next += k.String() + " "
	}
	row("Next   %s", next)
	if pending > 0 {
		d.text(x, line, styleAccent, "Incoming %d", pending)
		line++
	}
	if r, at, ok := g.LastClear(); ok && g.Clock().Now().Sub(at) < 2*time.Second && r.Label != "" {
		d.text(x, line+1, styleAccent, "%s", r.Label)
	}
	if g.Paused() {
		d.text(x, line+3, styleAccent, "PAUSED")
	}
	if paused := g.Clock().TotalPauseDuration(); paused >= time.Second {
		d.text(x, line+4, styleFrame, "Paused %s", paused.Truncate(time.Second))
	}
}

// drawSnapshot renders an opponent board
func (d *display) drawSnapshot(s *network.BoardSnapshot, x, y int) {
	d.well(x, y)
	for r := 0; r < game.VisibleHeight; r++ {
		for c := 0; c < game.BoardWidth; c++ {
			d.block(x+c*2, y+r, cellStyle(s.Cell(r, c)), blankRunes)
		}
	}
	for _, p := range s.CurrentCells {
		if p.Row >= 0 && p.Row < game.VisibleHeight {
			d.block(x+p.Col*2, y+p.Row, cellStyle(s.CurrentKind.Cell()), blankRunes)
		}
	}
	d.text(x, y+game.VisibleHeight+1, styleText, "Opponent  %d pts  %d lines", s.Score, s.Lines)
	if s.PendingGarbage > 0 {
		d.text(x, y+game.VisibleHeight+2, styleAccent, "Incoming %d", s.PendingGarbage)
	}
}

// drawSolo renders a single-player session
func (d *display) drawSolo(g *game.Game) {
	d.screen.Clear()
	d.drawGame(g, boardX, boardY)
	d.text(panelX, boardY, styleAccent, "%s", g.Mode())
	d.drawPanel(g, panelX, boardY+2, 0)
	if g.GameOver() {
		msg := "GAME OVER"
		if g.ObjectiveCleared() {
			msg = "CLEAR"
		}
		d.text(panelX, boardY+game.VisibleHeight-2, styleAccent, "%s  (Ctrl+C quits)", msg)
	}
	d.screen.Show()
}

// Present implements versus.Presenter
func (d *display) Present(f versus.Frame) {
	d.phase.Store(uint32(f.Phase))
	d.screen.Clear()

	switch f.Phase {
	case versus.PhaseLobby:
		d.text(boardX, boardY, styleText, "Waiting for opponent (%s)...", f.Role)
	case versus.PhaseCountdown:
		if f.Countdown > 0 {
			d.text(boardX, boardY, styleAccent, "Starting in %d", f.Countdown)
		} else {
			d.text(boardX, boardY, styleText, "Get ready")
		}
	case versus.PhasePlaying:
		if f.Game != nil {
			d.drawGame(f.Game, boardX, boardY)
			d.drawPanel(f.Game, panelX, boardY, f.Pending)
		}
		if f.Opponent != nil {
			d.drawSnapshot(f.Opponent, opponentX, boardY)
		}
		if f.OpponentStalled {
			d.text(opponentX, boardY+game.VisibleHeight+3, styleAccent, "Opponent not responding")
		}
	case versus.PhaseResult:
		d.presentResult(f)
	}
	if f.MatchID != "" {
		d.text(boardX, boardY+game.VisibleHeight+3, styleFrame, "match %s", f.MatchID)
	}
	d.screen.Show()
}

func (d *display) presentResult(f versus.Frame) {
	y := boardY
	if f.Result != nil {
		r := f.Result
		title := "YOU LOSE"
		if r.Won() {
			title = "YOU WIN"
		}
		if r.DoubleKnockout {
			title += " (double knockout)"
		}
		d.text(boardX, y, styleAccent, "%s", title)
		d.text(boardX, y+2, styleText, "You       %d pts  %d lines", r.Score, r.Lines)
		d.text(boardX, y+3, styleText, "Opponent  %d pts  %d lines", r.OpponentScore, r.OpponentLines)
		d.text(boardX, y+4, styleText, "Sent      %d rows", r.Sent)
		d.text(boardX, y+5, styleText, "Duration  %s", r.Duration.Truncate(time.Second))
		y += 7
	}
	switch {
	case f.RematchRequested:
		d.text(boardX, y, styleText, "Rematch requested, waiting for opponent")
	case f.OpponentRematch:
		d.text(boardX, y, styleAccent, "Opponent wants a rematch")
	}
	d.text(boardX, y+2, styleText, "[r] rematch   [q] leave")
}
