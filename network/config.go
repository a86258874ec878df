package network

import (
	"fmt"
	"time"
)

// Role defines which side of a versus match this process plays
type Role uint8

const (
	RoleNone Role = iota // Network disabled
	RoleHost             // Listens and owns match settings
	RoleJoin             // Connects to a host
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleJoin:
		return "join"
	default:
		return "none"
	}
}

// Transport selects the byte stream carrying frames
type Transport uint8

const (
	TransportTCP Transport = iota
	TransportWebSocket
)

// ParseTransport resolves "tcp" or "websocket"
func ParseTransport(s string) (Transport, error) {
	switch s {
	case "", "tcp":
		return TransportTCP, nil
	case "ws", "websocket":
		return TransportWebSocket, nil
	default:
		return TransportTCP, fmt.Errorf("unknown transport %q", s)
	}
}

// Config holds network configuration
type Config struct {
	// Role determines connection behavior
	Role Role

	// Transport selects plain TCP or WebSocket framing
	Transport Transport

	// Address to bind (host) or connect to (join)
	Address string

	// WebSocketPath is the HTTP path the host serves the match endpoint on
	WebSocketPath string

	// Timing
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration // blocking receive bound before the real-time loop
	WriteTimeout     time.Duration

	// Buffer sizes
	ReadBufferSize int
	RecvQueueSize  int
}

// DefaultConfig returns production-safe defaults
func DefaultConfig() *Config {
	return &Config{
		Role:             RoleNone,
		Transport:        TransportTCP,
		Address:          ":7777",
		WebSocketPath:    "/versus",
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadBufferSize:   4096,
		RecvQueueSize:    256,
	}
}
