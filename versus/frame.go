package versus

import (
	"time"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/network"
)

// Phase is the orchestrator step a frame was taken in
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhasePlaying
	PhaseResult
)

var phaseNames = [...]string{
	PhaseLobby:     "lobby",
	PhaseCountdown: "countdown",
	PhasePlaying:   "playing",
	PhaseResult:    "result",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Frame is everything presentation needs for one redraw. Game is the local
// session, valid only for the duration of the Present call
type Frame struct {
	Phase   Phase
	MatchID string
	Role    network.Role

	// Countdown is the pending tick (3, 2, 1), 0 while waiting for the host
	Countdown int

	Game     *game.Game
	Pending  int // garbage rows queued against the local board
	Opponent *network.BoardSnapshot
	Elapsed  time.Duration

	// OpponentStalled is set while nothing has arrived from the peer for
	// longer than Options.StallThreshold
	OpponentStalled bool

	Result           *Result
	RematchRequested bool // local player asked for a rematch
	OpponentRematch  bool // opponent asked for a rematch
}

// Presenter receives frames from the orchestrator loop. Present runs on the
// loop goroutine and must not block
type Presenter interface {
	Present(f Frame)
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(f Frame)

func (fn PresenterFunc) Present(f Frame) { fn(f) }

type nopPresenter struct{}

func (nopPresenter) Present(Frame) {}
