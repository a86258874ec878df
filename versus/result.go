package versus

import (
	"context"
	"time"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/network"
)

// Result summarizes one round from the local player's side
type Result struct {
	Outcome        network.MatchOutcome
	Score          int
	Lines          int
	OpponentScore  int // from the last snapshot received
	OpponentLines  int
	Sent           int // garbage rows sent
	Duration       time.Duration
	DoubleKnockout bool
}

// Won reports a local win
func (r Result) Won() bool { return r.Outcome == network.OutcomeWin }

// Decision is the local player's answer on the result screen
type Decision uint8

const (
	DecisionRematch Decision = iota + 1
	DecisionLeave
)

// adoptHostResult returns the joiner's outcome given the host's. The host is
// authoritative; the joiner takes its inverse
func (s *Session) adoptHostResult(local, host network.MatchOutcome) network.MatchOutcome {
	outcome := host.Invert()
	if outcome != local {
		s.log.Infow("adopting host result", "local", local, "outcome", outcome)
	}
	return outcome
}

// awaitHostResult waits for the host's MatchResult after a round. On timeout
// the local view stands. A rematch request racing the result is kept for the
// result screen
func (s *Session) awaitHostResult(ctx context.Context, local network.MatchOutcome) network.MatchOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.opts.HandshakeTimeout)
	defer cancel()

	for {
		m, err := s.conn.Recv(ctx)
		if err != nil {
			s.log.Warnw("no match result from host", "error", err, "outcome", local)
			return local
		}
		s.metrics.messagesIn.Add(1)
		switch m := m.(type) {
		case network.MatchResult:
			return s.adoptHostResult(local, m.Outcome)
		case network.RematchRequest:
			s.peerRematch = true
		case network.Disconnect:
			s.log.Infow("opponent left before result", "outcome", local)
			return local
		}
	}
}

func (s *Session) record(r Result, st *game.PieceStats) {
	s.last = &r
	s.metrics.matches.Add(1)
	if r.Won() {
		s.metrics.wins.Add(1)
	} else {
		s.metrics.losses.Add(1)
	}
	s.metrics.addPieceStats(st)
	s.metrics.storeConnStats(s.conn.Stats())
	apm := attackRate(r.Sent, r.Duration)
	s.metrics.attackPerMinute.Store(apm)

	s.log.Infow("match ended",
		"round", s.round,
		"outcome", r.Outcome,
		"score", r.Score,
		"lines", r.Lines,
		"sent", r.Sent,
		"attack_per_minute", apm,
		"pieces", st.TotalPieces(),
		"double_ko", r.DoubleKnockout,
		"duration", r.Duration,
	)
}

// NegotiateRematch runs the result screen exchange. Either side may request;
// a request crossing the peer's request, or an accept, starts another round.
// Leaving sends Disconnect. It reports whether to play again; an opponent who
// leaves yields ErrPeerLeft
func (s *Session) NegotiateRematch(ctx context.Context, decisions <-chan Decision) (bool, error) {
	s.metrics.phase.Store(PhaseResult.String())

	// A request that arrived while the round was closing counts as already made
	weRequested, theyRequested := false, s.peerRematch
	s.peerRematch = false
	frame := func() {
		f := Frame{Phase: PhaseResult, RematchRequested: weRequested, OpponentRematch: theyRequested}
		if s.last != nil {
			r := *s.last
			f.Result = &r
		}
		s.present(f)
	}
	frame()

	ticker := time.NewTicker(ResultPollInterval)
	defer ticker.Stop()

	for {
		for {
			m, err := s.tryRecv()
			if err != nil {
				return false, s.fail("rematch", err)
			}
			if m == nil {
				break
			}
			switch m := m.(type) {
			case network.RematchRequest:
				theyRequested = true
				if weRequested {
					return s.acceptRematch()
				}
				frame()
			case network.RematchAccept:
				if weRequested {
					s.log.Infow("rematch accepted")
					return true, nil
				}
			case network.MatchResult:
				if s.role == network.RoleJoin && s.last != nil {
					s.last.Outcome = m.Outcome.Invert()
					frame()
				}
			case network.Disconnect:
				return false, s.fail("rematch", ErrPeerLeft)
			}
		}

		select {
		case d, ok := <-decisions:
			if !ok {
				decisions = nil
				continue
			}
			switch d {
			case DecisionRematch:
				if weRequested {
					continue
				}
				weRequested = true
				if err := s.send(network.RematchRequest{}); err != nil {
					return false, s.fail("rematch", err)
				}
				if theyRequested {
					return s.acceptRematch()
				}
				frame()
			case DecisionLeave:
				s.leave()
				s.log.Infow("left after match")
				return false, nil
			}
		case <-ticker.C:
		case <-ctx.Done():
			s.leave()
			return false, ctx.Err()
		}
	}
}

func (s *Session) acceptRematch() (bool, error) {
	if err := s.send(network.RematchAccept{}); err != nil {
		return false, s.fail("rematch", err)
	}
	s.log.Infow("rematch accepted")
	return true, nil
}
