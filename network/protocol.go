package network

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lixenwraith/blockfall/game"
)

// ProtocolVersion is exchanged in Hello; peers with different versions refuse to play
const ProtocolVersion = 1

// Frame layout: [Len:4 big-endian][Payload:Len]
const (
	FrameHeaderSize = 4
	MaxFrameSize    = 64 * 1024
)

// MessageType identifies the semantic meaning of a message
type MessageType string

const (
	// Handshake and lobby
	MsgHello         MessageType = "hello"
	MsgLobbySettings MessageType = "lobby_settings"
	MsgReady         MessageType = "ready"
	MsgCountdown     MessageType = "countdown"
	MsgGameStart     MessageType = "game_start"

	// Match
	MsgGarbageAttack MessageType = "garbage_attack"
	MsgBoardState    MessageType = "board_state"
	MsgPlayerDead    MessageType = "player_dead"
	MsgMatchResult   MessageType = "match_result"

	// Post-match
	MsgRematchRequest MessageType = "rematch_request"
	MsgRematchAccept  MessageType = "rematch_accept"
	MsgDisconnect     MessageType = "disconnect"
)

// Message is one protocol message. Consumers switch on the concrete type
type Message interface {
	Type() MessageType
}

// Hello opens the handshake
type Hello struct {
	Version int `json:"version"`
}

// LobbySettings carries the host's rule set and the match identifier both
// peers log under
type LobbySettings struct {
	Settings game.VersusSettings `json:"settings"`
	MatchID  string              `json:"match_id,omitempty"`
}

// Ready acknowledges the lobby settings
type Ready struct{}

// Countdown is one pre-start tick (3, 2, 1)
type Countdown struct {
	N int `json:"n"`
}

// GameStart ends the countdown
type GameStart struct{}

// GarbageAttack sends rows to the opponent
type GarbageAttack struct {
	Lines      int `json:"lines"`
	HoleColumn int `json:"hole_column"`
}

// BoardState is a periodic snapshot of the sender's board
type BoardState struct {
	Snapshot BoardSnapshot `json:"snapshot"`
}

// PlayerDead announces the sender topped out or forfeited
type PlayerDead struct{}

// MatchOutcome is a match result from the receiving side's point of view
type MatchOutcome string

const (
	OutcomeWin  MatchOutcome = "win"
	OutcomeLose MatchOutcome = "lose"
)

// Invert returns the opponent's view of the outcome
func (o MatchOutcome) Invert() MatchOutcome {
	if o == OutcomeWin {
		return OutcomeLose
	}
	return OutcomeWin
}

// MatchResult is the host's outcome notice. Outcome is the host's own result
type MatchResult struct {
	Outcome MatchOutcome `json:"outcome"`
}

// RematchRequest proposes another round
type RematchRequest struct{}

// RematchAccept agrees to another round
type RematchAccept struct{}

// Disconnect announces a graceful teardown
type Disconnect struct{}

func (Hello) Type() MessageType          { return MsgHello }
func (LobbySettings) Type() MessageType  { return MsgLobbySettings }
func (Ready) Type() MessageType          { return MsgReady }
func (Countdown) Type() MessageType      { return MsgCountdown }
func (GameStart) Type() MessageType      { return MsgGameStart }
func (GarbageAttack) Type() MessageType  { return MsgGarbageAttack }
func (BoardState) Type() MessageType     { return MsgBoardState }
func (PlayerDead) Type() MessageType     { return MsgPlayerDead }
func (MatchResult) Type() MessageType    { return MsgMatchResult }
func (RematchRequest) Type() MessageType { return MsgRematchRequest }
func (RematchAccept) Type() MessageType  { return MsgRematchAccept }
func (Disconnect) Type() MessageType     { return MsgDisconnect }

// envelope is the JSON payload of every frame
type envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Marshal encodes a message into a frame payload
func Marshal(m Message) ([]byte, error) {
	env := envelope{Type: m.Type()}
	switch m.(type) {
	case Ready, GameStart, PlayerDead, RematchRequest, RematchAccept, Disconnect:
	default:
		body, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
		}
		env.Payload = body
	}
	return json.Marshal(env)
}

// Unmarshal decodes a frame payload
func Unmarshal(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var m Message
	switch env.Type {
	case MsgHello:
		var v Hello
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		m = v
	case MsgLobbySettings:
		var v LobbySettings
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		m = v
	case MsgReady:
		m = Ready{}
	case MsgCountdown:
		var v Countdown
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		m = v
	case MsgGameStart:
		m = GameStart{}
	case MsgGarbageAttack:
		var v GarbageAttack
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		m = v
	case MsgBoardState:
		var v BoardState
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		m = v
	case MsgPlayerDead:
		m = PlayerDead{}
	case MsgMatchResult:
		var v MatchResult
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		if v.Outcome != OutcomeWin && v.Outcome != OutcomeLose {
			return nil, fmt.Errorf("%w: outcome %q", ErrMalformedPayload, v.Outcome)
		}
		m = v
	case MsgRematchRequest:
		m = RematchRequest{}
	case MsgRematchAccept:
		m = RematchAccept{}
	case MsgDisconnect:
		m = Disconnect{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
	return m, nil
}

func decodePayload(env envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s without payload", ErrMalformedPayload, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Type, err)
	}
	return nil
}

// WriteFrame writes one length-prefixed frame
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	frame := make([]byte, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame[:FrameHeaderSize], uint32(len(payload)))
	copy(frame[FrameHeaderSize:], payload)
	_, err := w.Write(frame)
	return err
}

// nextFrame extracts the first complete frame payload from buf, returning
// the payload and the number of bytes consumed. A nil payload with zero
// consumed means more bytes are needed
func nextFrame(buf []byte) ([]byte, int, error) {
	if len(buf) < FrameHeaderSize {
		return nil, 0, nil
	}
	n := binary.BigEndian.Uint32(buf[:FrameHeaderSize])
	if n > MaxFrameSize {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	end := FrameHeaderSize + int(n)
	if len(buf) < end {
		return nil, 0, nil
	}
	return buf[FrameHeaderSize:end], end, nil
}
