package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/blockfall/config"
	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/input"
	"github.com/lixenwraith/blockfall/network"
	"github.com/lixenwraith/blockfall/status"
	"github.com/lixenwraith/blockfall/versus"
)

// frameInterval caps how long a solo loop sleeps between redraws
const frameInterval = 16 * time.Millisecond

// playSolo runs a single-player session until the player quits
func playSolo(ctx context.Context, settings game.Settings, mode game.Mode, reg *status.Registry,
	keys *input.KeyMap, d *display, events <-chan tcell.Event, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	actions := make(chan input.Action, 16)
	go pumpActions(ctx, cancel, keys, d, events, actions, nil)

	g := game.New(settings, mode, nil, nil)
	ctrl := input.NewController(g)
	score := reg.Ints.Get("solo.score")
	lines := reg.Ints.Get("solo.lines")
	pieces := reg.Ints.Get("solo.pieces_locked")
	publishPieceStats(reg, "solo", g.Stats())
	log.Infow("solo session started", "mode", mode, "level", settings.Level)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		ctrl.Update()
		for _, e := range g.DrainEvents() {
			switch e.Type {
			case game.EventLock:
				pieces.Add(1)
			case game.EventSpawn, game.EventHold:
				publishPieceStats(reg, "solo", g.Stats())
			case game.EventLevelUp:
				log.Debugw("level up", "level", e.Value)
			case game.EventGameOver:
				log.Infow("solo session over",
					"score", g.Score(),
					"lines", g.Lines(),
					"cleared", g.ObjectiveCleared(),
					"paused", g.Clock().TotalPauseDuration(),
				)
			}
		}
		score.Store(int64(g.Score()))
		lines.Store(int64(g.Lines()))
		d.drawSolo(g)

		timer.Reset(min(ctrl.NextWake(), frameInterval))
		select {
		case a := <-actions:
			timer.Stop()
			ctrl.Handle(a)
		case <-timer.C:
		case <-ctx.Done():
			return nil
		}
	}
}

// publishPieceStats mirrors the engine's per-kind spawn and per-size clear
// tallies into reg under prefix
func publishPieceStats(reg *status.Registry, prefix string, st *game.PieceStats) {
	for k := range game.KindCount {
		kind := game.Kind(k)
		reg.Ints.Get(prefix + ".spawned." + kind.String()).Store(int64(st.Spawned(kind)))
	}
	for n := 1; n <= game.MaxClearLines; n++ {
		reg.Ints.Get(prefix + ".clears." + strconv.Itoa(n)).Store(int64(st.Clears(n)))
	}
}

// playVersus connects to the opponent and plays rounds until either side
// leaves
func playVersus(ctx context.Context, cfg *config.Config, netCfg *network.Config, ws *network.WebSocketListener,
	reg *status.Registry, keys *input.KeyMap, d *display, events <-chan tcell.Event, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	actions := make(chan input.Action, 16)
	decisions := make(chan versus.Decision, 1)
	go pumpActions(ctx, cancel, keys, d, events, actions, decisions)

	d.Present(versus.Frame{Phase: versus.PhaseLobby, Role: netCfg.Role})
	conn, err := connect(ctx, netCfg, ws)
	if err != nil {
		return ignoreCancel(err)
	}
	log.Infow("peer connected", "role", netCfg.Role, "remote", conn.RemoteAddr())

	opts := versus.Options{
		Logger:           log,
		Metrics:          reg,
		Presenter:        d,
		HandshakeTimeout: netCfg.HandshakeTimeout,
	}
	var s *versus.Session
	if netCfg.Role == network.RoleHost {
		s, err = versus.Host(ctx, conn, cfg.Versus, opts)
	} else {
		s, err = versus.Join(ctx, conn, opts)
	}
	if err != nil {
		conn.Close()
		return ignoreCancel(err)
	}
	defer s.Close()

	err = s.Run(ctx, actions, decisions)
	if errors.Is(err, versus.ErrPeerLeft) {
		log.Infow("opponent left", "match", s.MatchID())
		return nil
	}
	return ignoreCancel(err)
}

// connect establishes the versus stream for the configured role and transport
func connect(ctx context.Context, cfg *network.Config, ws *network.WebSocketListener) (*network.Connection, error) {
	switch {
	case cfg.Role == network.RoleJoin && cfg.Transport == network.TransportWebSocket:
		return network.DialWebSocket(ctx, cfg)
	case cfg.Role == network.RoleJoin:
		return network.Dial(ctx, cfg)
	case ws != nil:
		return ws.Accept(ctx)
	}

	ln, err := network.Listen(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	return ln.Accept(ctx)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
