package network

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/blockfall/game"
)

func pipePair(t *testing.T) (*Connection, *Connection) {
	t.Helper()
	a, b := net.Pipe()
	ca := NewConnection(a, nil)
	cb := NewConnection(b, nil)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

// localConfig returns defaults for a loopback peer on addr
func localConfig(role Role, addr string) *Config {
	cfg := DefaultConfig()
	cfg.Role = role
	cfg.Address = addr
	return cfg
}

// rawPeer returns a Connection and the raw far end of its stream
func rawPeer(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	c := NewConnection(a, nil)
	t.Cleanup(func() {
		c.Close()
		b.Close()
	})
	return c, b
}

func frame(payload string) []byte {
	out := make([]byte, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[FrameHeaderSize:], payload)
	return out
}

func TestMessageRoundTrip(t *testing.T) {
	a, b := pipePair(t)

	messages := []Message{
		Hello{Version: ProtocolVersion},
		LobbySettings{Settings: game.DefaultVersusSettings()},
		Ready{},
		Countdown{N: 3},
		GameStart{},
		GarbageAttack{Lines: 4, HoleColumn: 7},
		BoardState{Snapshot: BoardSnapshot{
			Board:        make([]int, game.BoardWidth*game.VisibleHeight),
			CurrentCells: []game.Point{{Row: 0, Col: 4}},
			CurrentKind:  game.KindT,
			Score:        1200,
			Lines:        8,
		}},
		PlayerDead{},
		MatchResult{Outcome: OutcomeWin},
		RematchRequest{},
		RematchAccept{},
		Disconnect{},
	}

	go func() {
		for _, m := range messages {
			if err := a.Send(m); err != nil {
				return
			}
		}
	}()

	for _, want := range messages {
		got, err := b.RecvBlocking(time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, uint64(len(messages)), b.Stats().FramesIn)
}

func TestTryRecvPartialFrames(t *testing.T) {
	c, raw := rawPeer(t)

	m, err := c.TryRecv()
	assert.NoError(t, err)
	assert.Nil(t, m)

	data := frame(`{"type":"countdown","payload":{"n":2}}`)
	_, err = raw.Write(data[:3])
	require.NoError(t, err)
	_, err = raw.Write(data[3:10])
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		m, err = c.TryRecv()
		return err == nil && m == nil && len(c.buf) == 10
	}, time.Second, time.Millisecond)

	_, err = raw.Write(data[10:])
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		m, err = c.TryRecv()
		return m != nil || err != nil
	}, time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, Countdown{N: 2}, m)
}

func TestTwoFramesInOneChunk(t *testing.T) {
	c, raw := rawPeer(t)

	data := append(frame(`{"type":"ready"}`), frame(`{"type":"game_start"}`)...)
	go raw.Write(data)

	m, err := c.RecvBlocking(time.Second)
	require.NoError(t, err)
	assert.Equal(t, Ready{}, m)

	m, err = c.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, GameStart{}, m)
}

func TestOversizedFrameIsFatal(t *testing.T) {
	c, raw := rawPeer(t)

	header := make([]byte, FrameHeaderSize)
	binary.BigEndian.PutUint32(header, MaxFrameSize+1)
	go raw.Write(header)

	_, err := c.RecvBlocking(time.Second)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.True(t, IsFatal(err))
}

func TestMalformedPayload(t *testing.T) {
	c, raw := rawPeer(t)
	go raw.Write(frame(`not json`))

	_, err := c.RecvBlocking(time.Second)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestUnknownMessage(t *testing.T) {
	c, raw := rawPeer(t)
	go raw.Write(frame(`{"type":"teleport"}`))

	_, err := c.RecvBlocking(time.Second)
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestMissingPayload(t *testing.T) {
	c, raw := rawPeer(t)
	go raw.Write(frame(`{"type":"hello"}`))

	_, err := c.RecvBlocking(time.Second)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestPeerDisconnect(t *testing.T) {
	c, raw := rawPeer(t)
	raw.Close()

	_, err := c.RecvBlocking(time.Second)
	assert.ErrorIs(t, err, ErrPeerDisconnected)

	_, err = c.TryRecv()
	assert.ErrorIs(t, err, ErrPeerDisconnected)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestRecvTimeout(t *testing.T) {
	c, _ := rawPeer(t)

	start := time.Now()
	_, err := c.RecvBlocking(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, IsFatal(err))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRecvContextCancel(t *testing.T) {
	c, _ := rawPeer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendAfterClose(t *testing.T) {
	a, _ := pipePair(t)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
	assert.ErrorIs(t, a.Send(Ready{}), ErrClosed)
}

func TestWriteFrameRejectsOversize(t *testing.T) {
	var sb strings.Builder
	err := WriteFrame(&sb, make([]byte, MaxFrameSize+1))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Zero(t, sb.Len())
}

func TestMatchOutcomeInvert(t *testing.T) {
	assert.Equal(t, OutcomeLose, OutcomeWin.Invert())
	assert.Equal(t, OutcomeWin, OutcomeLose.Invert())
}

func TestMatchResultRejectsBadOutcome(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"match_result","payload":{"outcome":"draw"}}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestTCPListenDial(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := localConfig(RoleHost, "127.0.0.1:0")
	ln, err := Listen(ctx, cfg)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan *Connection, 1)
	go func() {
		c, err := ln.Accept(ctx)
		if err == nil {
			accepted <- c
		}
	}()

	joinCfg := localConfig(RoleJoin, ln.Addr().String())
	client, err := Dial(ctx, joinCfg)
	require.NoError(t, err)
	defer client.Close()

	var server *Connection
	select {
	case server = <-accepted:
	case <-ctx.Done():
		t.Fatal("accept timed out")
	}
	defer server.Close()

	require.NoError(t, client.Send(Hello{Version: ProtocolVersion}))
	m, err := server.RecvBlocking(time.Second)
	require.NoError(t, err)
	assert.Equal(t, Hello{Version: ProtocolVersion}, m)

	client.Close()
	_, err = server.RecvBlocking(time.Second)
	assert.ErrorIs(t, err, ErrPeerDisconnected)
}

func TestAcceptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ln, err := Listen(ctx, localConfig(RoleHost, "127.0.0.1:0"))
	require.NoError(t, err)

	cancel()
	_, err = ln.Accept(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWebSocketStream(t *testing.T) {
	ln := NewWebSocketListener(DefaultConfig())
	srv := httptest.NewServer(ln)
	defer srv.Close()
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := localConfig(RoleJoin, "ws://"+strings.TrimPrefix(srv.URL, "http://")+"/versus")
	client, err := DialWebSocket(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	server, err := ln.Accept(ctx)
	require.NoError(t, err)
	defer server.Close()

	require.NoError(t, client.Send(GarbageAttack{Lines: 2, HoleColumn: 5}))
	require.NoError(t, client.Send(PlayerDead{}))

	m, err := server.RecvBlocking(time.Second)
	require.NoError(t, err)
	assert.Equal(t, GarbageAttack{Lines: 2, HoleColumn: 5}, m)
	m, err = server.RecvBlocking(time.Second)
	require.NoError(t, err)
	assert.Equal(t, PlayerDead{}, m)

	require.NoError(t, server.Send(MatchResult{Outcome: OutcomeWin}))
	m, err = client.RecvBlocking(time.Second)
	require.NoError(t, err)
	assert.Equal(t, MatchResult{Outcome: OutcomeWin}, m)

	client.Close()
	_, err = server.RecvBlocking(time.Second)
	assert.ErrorIs(t, err, ErrPeerDisconnected)
}

func TestWebSocketURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "10.0.0.2:7777"
	assert.Equal(t, "ws://10.0.0.2:7777/versus", WebSocketURL(cfg))
	cfg.Address = "wss://example.net/play"
	assert.Equal(t, "wss://example.net/play", WebSocketURL(cfg))
}

func TestBoardSnapshot(t *testing.T) {
	mt := game.NewMockTimeProvider(time.Unix(0, 0))
	s := game.DefaultSettings()
	s.LineClearAnim = false
	g := game.New(s, game.ModeVersus, mt, nil)

	snap := NewBoardSnapshot(g, 3)
	assert.Len(t, snap.Board, game.BoardWidth*game.VisibleHeight)
	assert.Len(t, snap.CurrentCells, 4)
	assert.Equal(t, g.Current().Kind, snap.CurrentKind)
	assert.Equal(t, 3, snap.PendingGarbage)
	for i, c := range g.Current().Cells() {
		assert.Equal(t, c.Row-game.BufferHeight, snap.CurrentCells[i].Row)
	}

	g.HardDrop()
	require.True(t, g.InARE())
	snap = NewBoardSnapshot(g, 0)
	assert.Empty(t, snap.CurrentCells)
	assert.Equal(t, g.Score(), snap.Score)

	filled := 0
	for r := range game.VisibleHeight {
		for c := range game.BoardWidth {
			if snap.Cell(r, c) != game.Empty {
				filled++
			}
		}
	}
	assert.Equal(t, 4, filled)
	assert.Equal(t, game.Empty, snap.Cell(-1, 0))
}

func TestBoardStateEncodesCellsAsNumbers(t *testing.T) {
	snap := BoardSnapshot{Board: make([]int, game.BoardWidth*game.VisibleHeight)}
	snap.Board[0] = int(game.KindT.Cell())
	snap.Board[len(snap.Board)-1] = int(game.GarbageCell)

	data, err := Marshal(BoardState{Snapshot: snap})
	require.NoError(t, err)

	var env struct {
		Payload struct {
			Snapshot struct {
				Board []json.Number `json:"board"`
			} `json:"snapshot"`
		} `json:"payload"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&env))

	board := env.Payload.Snapshot.Board
	require.Len(t, board, game.BoardWidth*game.VisibleHeight)
	assert.Equal(t, json.Number(strconv.Itoa(int(game.KindT.Cell()))), board[0])
	assert.Equal(t, json.Number(strconv.Itoa(int(game.GarbageCell))), board[len(board)-1])

	got, err := Unmarshal(data)
	require.NoError(t, err)
	decoded := got.(BoardState).Snapshot
	assert.Equal(t, game.KindT.Cell(), decoded.Cell(0, 0))
	assert.Equal(t, game.GarbageCell, decoded.Cell(game.VisibleHeight-1, game.BoardWidth-1))
}
