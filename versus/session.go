// Package versus runs a two-player match over a network.Connection:
// handshake, lobby, countdown, the real-time loop and rematch negotiation.
// Each peer simulates its own board; the peers exchange only snapshots,
// garbage attacks and lifecycle notices
package versus

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/input"
	"github.com/lixenwraith/blockfall/logging"
	"github.com/lixenwraith/blockfall/network"
	"github.com/lixenwraith/blockfall/status"
)

// Timing defaults
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultCountdownStep    = time.Second
	DefaultSyncInterval     = 66 * time.Millisecond
	LoopCeiling             = 16 * time.Millisecond
	ResultPollInterval      = 50 * time.Millisecond
	DefaultStallThreshold   = time.Second
	CountdownFrom           = 3
)

// Options configures a session. Zero values select the defaults
type Options struct {
	Logger    *zap.SugaredLogger
	Metrics   *status.Registry
	Presenter Presenter

	// Clock drives the engine and the sync timer
	Clock game.TimeProvider
	Rand  *rand.Rand

	// Version is announced in Hello; defaults to network.ProtocolVersion
	Version int

	HandshakeTimeout time.Duration
	CountdownStep    time.Duration
	SyncInterval     time.Duration

	// StallThreshold is how long the peer may stay silent during play
	// before frames flag it as stalled
	StallThreshold time.Duration
}

func (o *Options) applyDefaults() {
	o.Logger = logging.OrNop(o.Logger)
	if o.Presenter == nil {
		o.Presenter = nopPresenter{}
	}
	if o.Clock == nil {
		o.Clock = game.NewMonotonicTimeProvider()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Version == 0 {
		o.Version = network.ProtocolVersion
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if o.CountdownStep <= 0 {
		o.CountdownStep = DefaultCountdownStep
	}
	if o.SyncInterval <= 0 {
		o.SyncInterval = DefaultSyncInterval
	}
	if o.StallThreshold <= 0 {
		o.StallThreshold = DefaultStallThreshold
	}
}

// Session is one peer's side of a versus pairing. It owns the connection and
// is driven from a single goroutine
type Session struct {
	conn     *network.Connection
	role     network.Role
	settings game.VersusSettings
	matchID  string
	round    int

	opts    Options
	log     *zap.SugaredLogger
	metrics *metrics

	last *Result

	// peerRematch holds a RematchRequest received before the result screen
	peerRematch bool
}

func newSession(conn *network.Connection, role network.Role, opts Options) *Session {
	opts.applyDefaults()
	return &Session{
		conn:    conn,
		role:    role,
		opts:    opts,
		log:     opts.Logger.With("role", role.String(), "remote", conn.RemoteAddr()),
		metrics: newMetrics(opts.Metrics),
	}
}

// Host performs the host side of the handshake and lobby on an accepted
// connection: Hello exchange, LobbySettings out, Ready in
func Host(ctx context.Context, conn *network.Connection, settings game.VersusSettings, opts Options) (*Session, error) {
	s := newSession(conn, network.RoleHost, opts)
	s.settings = settings
	s.matchID = uuid.NewString()
	s.bindMatch()

	if err := s.handshake(ctx); err != nil {
		return nil, s.fail("handshake", err)
	}
	if err := s.send(network.LobbySettings{Settings: settings, MatchID: s.matchID}); err != nil {
		return nil, s.fail("lobby", err)
	}
	s.present(Frame{Phase: PhaseLobby})

	m, err := s.recvStep(ctx)
	if err != nil {
		return nil, s.fail("lobby", err)
	}
	if _, ok := m.(network.Ready); !ok {
		return nil, s.fail("lobby", unexpected(m, network.MsgReady))
	}
	s.log.Infow("lobby ready", "settings", settings)
	return s, nil
}

// Join performs the joining side: Hello exchange, LobbySettings in, Ready out
func Join(ctx context.Context, conn *network.Connection, opts Options) (*Session, error) {
	s := newSession(conn, network.RoleJoin, opts)

	if err := s.handshake(ctx); err != nil {
		return nil, s.fail("handshake", err)
	}
	s.present(Frame{Phase: PhaseLobby})

	m, err := s.recvStep(ctx)
	if err != nil {
		return nil, s.fail("lobby", err)
	}
	lobby, ok := m.(network.LobbySettings)
	if !ok {
		return nil, s.fail("lobby", unexpected(m, network.MsgLobbySettings))
	}
	s.settings = lobby.Settings
	s.matchID = lobby.MatchID
	if s.matchID == "" {
		s.matchID = uuid.NewString()
	}
	s.bindMatch()

	if err := s.send(network.Ready{}); err != nil {
		return nil, s.fail("lobby", err)
	}
	s.log.Infow("lobby ready", "settings", lobby.Settings)
	return s, nil
}

func (s *Session) bindMatch() {
	s.log = s.log.With("match", s.matchID)
	s.metrics.matchID.Store(s.matchID)
}

// handshake sends Hello and expects the peer's Hello with the same version.
// Both peers send first, so a mismatch is detected on both sides
func (s *Session) handshake(ctx context.Context) error {
	if err := s.send(network.Hello{Version: s.opts.Version}); err != nil {
		return err
	}
	m, err := s.recvStep(ctx)
	if err != nil {
		return err
	}
	hello, ok := m.(network.Hello)
	if !ok {
		return unexpected(m, network.MsgHello)
	}
	if hello.Version != s.opts.Version {
		return fmt.Errorf("%w: local %d, peer %d", ErrVersionMismatch, s.opts.Version, hello.Version)
	}
	s.log.Infow("handshake complete", "version", hello.Version)
	return nil
}

// Role returns which side this session plays
func (s *Session) Role() network.Role { return s.role }

// Settings returns the host-authoritative rule set
func (s *Session) Settings() game.VersusSettings { return s.settings }

// MatchID returns the identifier shared by both peers
func (s *Session) MatchID() string { return s.matchID }

// LastResult returns the outcome of the most recent round
func (s *Session) LastResult() (Result, bool) {
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Run plays rounds until a player declines a rematch or the connection
// fails. Actions feed the local game during play; decisions answer the
// result screen
func (s *Session) Run(ctx context.Context, actions <-chan input.Action, decisions <-chan Decision) error {
	for {
		if err := s.Countdown(ctx); err != nil {
			return err
		}
		if _, err := s.PlayMatch(ctx, actions); err != nil {
			return err
		}
		again, err := s.NegotiateRematch(ctx, decisions)
		if err != nil || !again {
			return err
		}
	}
}

// Countdown runs the synchronized pre-start ticks. The host paces and
// broadcasts them; the joiner follows
func (s *Session) Countdown(ctx context.Context) error {
	s.metrics.phase.Store(PhaseCountdown.String())
	if s.role == network.RoleHost {
		return s.hostCountdown(ctx)
	}
	return s.joinCountdown(ctx)
}

func (s *Session) hostCountdown(ctx context.Context) error {
	for n := CountdownFrom; n >= 1; n-- {
		if err := s.send(network.Countdown{N: n}); err != nil {
			return s.fail("countdown", err)
		}
		s.present(Frame{Phase: PhaseCountdown, Countdown: n})

		select {
		case <-time.After(s.opts.CountdownStep):
		case <-ctx.Done():
			s.leave()
			return ctx.Err()
		}
	}
	if err := s.send(network.GameStart{}); err != nil {
		return s.fail("countdown", err)
	}
	return nil
}

func (s *Session) joinCountdown(ctx context.Context) error {
	s.present(Frame{Phase: PhaseCountdown})
	for {
		m, err := s.recvStep(ctx)
		if err != nil {
			return s.fail("countdown", err)
		}
		switch m := m.(type) {
		case network.Countdown:
			s.present(Frame{Phase: PhaseCountdown, Countdown: m.N})
		case network.GameStart:
			return nil
		case network.Disconnect:
			return s.fail("countdown", ErrPeerLeft)
		}
		// Leftovers from the previous round are dropped
	}
}

// Close announces a graceful teardown and closes the connection
func (s *Session) Close() error {
	s.leave()
	s.metrics.active.Store(false)
	return s.conn.Close()
}

// leave sends Disconnect, ignoring failures on an already broken stream
func (s *Session) leave() {
	_ = s.send(network.Disconnect{})
}

func (s *Session) send(m network.Message) error {
	if err := s.conn.Send(m); err != nil {
		return err
	}
	s.metrics.messagesOut.Add(1)
	return nil
}

// recvStep is the bounded blocking receive used outside the real-time loop
func (s *Session) recvStep(ctx context.Context) (network.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.HandshakeTimeout)
	defer cancel()
	m, err := s.conn.Recv(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.messagesIn.Add(1)
	return m, nil
}

// tryRecv polls for one message without blocking
func (s *Session) tryRecv() (network.Message, error) {
	m, err := s.conn.TryRecv()
	if m != nil {
		s.metrics.messagesIn.Add(1)
	}
	return m, err
}

func (s *Session) present(f Frame) {
	f.MatchID = s.matchID
	f.Role = s.role
	s.opts.Presenter.Present(f)
}

// fail logs a step failure and returns err wrapped with the step name
func (s *Session) fail(step string, err error) error {
	if errors.Is(err, ErrPeerLeft) {
		s.log.Infow("opponent left", "step", step)
	} else {
		s.log.Errorw("versus step failed", "step", step, "error", err)
	}
	return fmt.Errorf("%s: %w", step, err)
}

func unexpected(m network.Message, want network.MessageType) error {
	if _, ok := m.(network.Disconnect); ok {
		return ErrPeerLeft
	}
	return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedMessage, m.Type(), want)
}
