package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsStream adapts a message-oriented WebSocket to the byte stream the framing
// layer expects. Each frame is written as one binary message; reads
// concatenate message bodies
type wsStream struct {
	ws     *websocket.Conn
	reader io.Reader

	closeOnce sync.Once
}

func newWSStream(ws *websocket.Conn) *wsStream {
	ws.SetReadLimit(MaxFrameSize + FrameHeaderSize)
	return &wsStream{ws: ws}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			mt, r, err := s.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			s.reader = r
		}
		n, err := s.reader.Read(p)
		if errors.Is(err, io.EOF) {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) SetWriteDeadline(t time.Time) error {
	return s.ws.SetWriteDeadline(t)
}

func (s *wsStream) RemoteAddr() net.Addr {
	return s.ws.RemoteAddr()
}

func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.ws.Close()
	})
	return err
}

// WebSocketURL builds the join URL for a host address
func WebSocketURL(cfg *Config) string {
	addr := cfg.Address
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr + cfg.WebSocketPath
}

// DialWebSocket joins a host serving the versus endpoint over HTTP
func DialWebSocket(ctx context.Context, cfg *Config) (*Connection, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	d := websocket.Dialer{
		HandshakeTimeout: cfg.ConnectTimeout,
		ReadBufferSize:   cfg.ReadBufferSize,
		WriteBufferSize:  cfg.ReadBufferSize,
	}
	url := WebSocketURL(cfg)
	ws, resp, err := d.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewConnection(newWSStream(ws), cfg), nil
}

// WebSocketListener accepts versus peers arriving over HTTP upgrade. It is an
// http.Handler meant to be mounted on the host's router
type WebSocketListener struct {
	config   *Config
	upgrader websocket.Upgrader
	conns    chan *Connection

	mu     sync.Mutex
	closed bool
}

// NewWebSocketListener creates a listener holding at most one waiting peer
func NewWebSocketListener(cfg *Config) *WebSocketListener {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &WebSocketListener{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.ReadBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(chan *Connection, 1),
	}
}

// ServeHTTP upgrades the request and queues the connection for Accept.
// A second peer while one is waiting is turned away
func (l *WebSocketListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed || len(l.conns) == cap(l.conns) {
		http.Error(w, "match unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := NewConnection(newWSStream(ws), l.config)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		conn.Close()
		return
	}
	select {
	case l.conns <- conn:
	default:
		conn.Close()
	}
}

// Accept waits for the next upgraded peer
func (l *WebSocketListener) Accept(ctx context.Context) (*Connection, error) {
	select {
	case c, ok := <-l.conns:
		if !ok {
			return nil, ErrClosed
		}
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close rejects further peers and drops any waiting one
func (l *WebSocketListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.conns)
	for c := range l.conns {
		c.Close()
	}
	return nil
}
