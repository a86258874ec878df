package versus

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/garbage"
	"github.com/lixenwraith/blockfall/input"
	"github.com/lixenwraith/blockfall/network"
)

// match is the state of one round's real-time loop
type match struct {
	s     *Session
	game  *game.Game
	ctrl  *input.Controller
	queue *garbage.Queue

	opponent *network.BoardSnapshot
	weDied   bool
	oppDead  bool
	stalled  bool
	lastSync time.Time
	sent     int // garbage rows sent this round

	// hostOutcome is the host's MatchResult when it arrived during the round
	hostOutcome *network.MatchOutcome
}

// PlayMatch runs one round until either player is out. Each iteration syncs
// the local board on its interval, drains every inbound message, advances
// the local engine and sleeps until the next timer, an action, or the loop
// ceiling. A closed actions channel leaves the game running on gravity alone
func (s *Session) PlayMatch(ctx context.Context, actions <-chan input.Action) (Result, error) {
	s.round++
	s.metrics.phase.Store(PhasePlaying.String())
	s.metrics.active.Store(true)
	defer s.metrics.active.Store(false)
	s.log.Infow("match started", "round", s.round)

	g := game.New(s.settings.ToSettings(), game.ModeVersus, s.opts.Clock, s.opts.Rand)
	m := &match{
		s:        s,
		game:     g,
		ctrl:     input.NewController(g),
		queue:    garbage.NewQueue(),
		lastSync: s.opts.Clock.Now(),
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if err := m.noteDeath(); err != nil {
			return Result{}, err
		}
		if m.weDied || m.oppDead {
			break
		}

		if err := m.sync(); err != nil {
			return Result{}, s.fail("match", err)
		}
		if err := m.drainInbound(); err != nil {
			return Result{}, s.fail("match", err)
		}
		if m.oppDead {
			break
		}

		m.ctrl.Update()
		if err := m.settle(); err != nil {
			return Result{}, s.fail("match", err)
		}
		m.present()

		wait := min(m.ctrl.NextWake(), LoopCeiling, m.syncRemaining())
		timer.Reset(wait)
		select {
		case a, ok := <-actions:
			timer.Stop()
			if !ok {
				actions = nil
				continue
			}
			m.handle(a)
			if err := m.settle(); err != nil {
				return Result{}, s.fail("match", err)
			}
		case <-timer.C:
		case <-ctx.Done():
			s.leave()
			return Result{}, ctx.Err()
		}
	}

	// A death notice already in flight turns a single knockout into a double
	if m.weDied && !m.oppDead {
		_ = m.drainInbound()
	}

	res := Result{
		Outcome:        resolveOutcome(s.role, m.weDied, m.oppDead),
		Score:          g.Score(),
		Lines:          g.Lines(),
		Sent:           m.sent,
		Duration:       g.Elapsed(),
		DoubleKnockout: m.weDied && m.oppDead,
	}
	if m.opponent != nil {
		res.OpponentScore = m.opponent.Score
		res.OpponentLines = m.opponent.Lines
	}

	switch {
	case s.role == network.RoleHost:
		if err := s.send(network.MatchResult{Outcome: res.Outcome}); err != nil {
			return Result{}, s.fail("result", err)
		}
	case m.hostOutcome != nil:
		res.Outcome = s.adoptHostResult(res.Outcome, *m.hostOutcome)
	default:
		res.Outcome = s.awaitHostResult(ctx, res.Outcome)
	}

	s.record(res, g.Stats())
	return res, nil
}

// resolveOutcome decides the local outcome. A double knockout goes to the host
func resolveOutcome(role network.Role, weDied, oppDead bool) network.MatchOutcome {
	switch {
	case weDied && !oppDead:
		return network.OutcomeLose
	case oppDead && !weDied:
		return network.OutcomeWin
	case role == network.RoleHost:
		return network.OutcomeWin
	default:
		return network.OutcomeLose
	}
}

// handle routes one action. Versus has no pause; quitting forfeits
func (m *match) handle(a input.Action) {
	switch a {
	case input.ActionPause:
	case input.ActionQuit:
		m.ctrl.Handle(input.ActionForfeit)
	default:
		m.ctrl.Handle(a)
	}
}

// noteDeath sends PlayerDead once after the local game ends
func (m *match) noteDeath() error {
	if !m.game.GameOver() || m.weDied {
		return nil
	}
	m.weDied = true
	m.s.log.Infow("local player out", "score", m.game.Score(), "lines", m.game.Lines())
	if err := m.s.send(network.PlayerDead{}); err != nil {
		return m.s.fail("match", err)
	}
	return nil
}

func (m *match) syncRemaining() time.Duration {
	return max(m.s.opts.SyncInterval-m.s.opts.Clock.Now().Sub(m.lastSync), 0)
}

// sync sends the local board once per sync interval
func (m *match) sync() error {
	now := m.s.opts.Clock.Now()
	if now.Sub(m.lastSync) < m.s.opts.SyncInterval {
		return nil
	}
	m.lastSync = now
	snap := network.NewBoardSnapshot(m.game, m.queue.TotalPending())
	return m.s.send(network.BoardState{Snapshot: snap})
}

// drainInbound applies every message already received, without blocking
func (m *match) drainInbound() error {
	for {
		msg, err := m.s.tryRecv()
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}
		switch msg := msg.(type) {
		case network.GarbageAttack:
			if msg.Lines <= 0 || msg.HoleColumn < 0 || msg.HoleColumn >= game.BoardWidth {
				return fmt.Errorf("%w: garbage attack %d rows at column %d",
					network.ErrMalformedPayload, msg.Lines, msg.HoleColumn)
			}
			m.queue.Push(garbage.Event{Lines: msg.Lines, Hole: msg.HoleColumn})
			m.s.metrics.garbageReceived.Add(int64(msg.Lines))
		case network.BoardState:
			snap := msg.Snapshot
			m.opponent = &snap
		case network.PlayerDead:
			if !m.oppDead {
				m.oppDead = true
				m.s.log.Infow("opponent out")
			}
		case network.MatchResult:
			// The host decides right after its PlayerDead, often in the same chunk
			if m.s.role == network.RoleJoin {
				outcome := msg.Outcome
				m.hostOutcome = &outcome
			}
		case network.RematchRequest:
			m.s.peerRematch = true
		case network.Disconnect:
			return ErrPeerLeft
		}
		// Leftovers from the lobby or a previous result screen are dropped
	}
}

// settle reacts to the engine events produced since the last call
func (m *match) settle() error {
	for _, e := range m.game.DrainEvents() {
		if e.Type != game.EventLock {
			continue
		}
		m.s.metrics.piecesLocked.Add(1)
		attack, cancelled := postLock(m.game, m.queue, e.Result, m.s.opts.Rand)
		m.s.metrics.garbageCancelled.Add(int64(cancelled))
		if attack.Lines > 0 {
			if err := m.s.send(network.GarbageAttack{Lines: attack.Lines, HoleColumn: attack.Hole}); err != nil {
				return err
			}
			m.sent += attack.Lines
			m.s.metrics.garbageSent.Add(int64(attack.Lines))
		}
	}
	return nil
}

// postLock settles garbage after a lock. A clearing lock cancels its attack
// against pending garbage and returns the remainder to send, with a random
// hole; a non-clearing lock takes all pending garbage onto the board
func postLock(g *game.Game, q *garbage.Queue, r game.ClearResult, rng *rand.Rand) (attack garbage.Event, cancelled int) {
	if r.Lines == 0 {
		for _, e := range q.DrainAll() {
			g.QueueGarbage(e.Lines, e.Hole)
		}
		return garbage.Event{}, 0
	}

	lines := garbage.CalculateAttack(r)
	if lines == 0 {
		return garbage.Event{}, 0
	}
	remaining := q.Cancel(lines)
	if remaining == 0 {
		return garbage.Event{}, lines
	}
	return garbage.Event{Lines: remaining, Hole: rng.IntN(game.BoardWidth)}, lines - remaining
}

// checkStall reports whether the peer has been silent past the stall
// threshold, logging each transition. Silence is measured on the wall clock
// the connection stamps arrivals with
func (m *match) checkStall() bool {
	idle := time.Since(m.s.conn.LastSeen())
	stalled := idle > m.s.opts.StallThreshold
	if stalled != m.stalled {
		m.stalled = stalled
		if stalled {
			m.s.log.Warnw("opponent stalled", "idle", idle)
		} else {
			m.s.log.Infow("opponent resumed")
		}
	}
	return stalled
}

func (m *match) present() {
	m.s.present(Frame{
		Phase:           PhasePlaying,
		Game:            m.game,
		Pending:         m.queue.TotalPending(),
		Opponent:        m.opponent,
		OpponentStalled: m.checkStall(),
		Elapsed:         m.game.Elapsed(),
	})
}
