package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ConnState represents connection lifecycle state
type ConnState uint8

const (
	StateConnected ConnState = iota
	StateDisconnected
	StateClosed
)

// Optional stream capabilities, satisfied by net.Conn and the WebSocket adapter
type (
	remoteAddrer interface {
		RemoteAddr() net.Addr
	}
	writeDeadliner interface {
		SetWriteDeadline(t time.Time) error
	}
)

// ConnStats counts traffic over one connection
type ConnStats struct {
	FramesIn  uint64
	FramesOut uint64
	BytesIn   uint64
	BytesOut  uint64
}

// Connection frames messages over a byte stream. A background reader hands
// raw chunks to the receive side; frame reassembly happens in the caller's
// goroutine, which owns the accumulation buffer. Send may be called from any
// goroutine, receive only from the owning loop
type Connection struct {
	rwc    io.ReadWriteCloser
	remote string

	state    atomic.Uint32 // ConnState
	lastSeen atomic.Int64  // UnixNano

	// Receive side, owned by the caller's loop
	buf     []byte
	chunks  chan []byte
	readErr error // set by readLoop before chunks closes

	// Send side
	writeMu      sync.Mutex
	writeTimeout time.Duration

	framesIn, framesOut atomic.Uint64
	bytesIn, bytesOut   atomic.Uint64

	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewConnection wraps an established stream and starts its reader
func NewConnection(rwc io.ReadWriteCloser, cfg *Config) *Connection {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Connection{
		rwc:          rwc,
		remote:       "stream",
		chunks:       make(chan []byte, cfg.RecvQueueSize),
		writeTimeout: cfg.WriteTimeout,
		closeCh:      make(chan struct{}),
	}
	if ra, ok := rwc.(remoteAddrer); ok && ra.RemoteAddr() != nil {
		c.remote = ra.RemoteAddr().String()
	}
	c.state.Store(uint32(StateConnected))
	c.lastSeen.Store(time.Now().UnixNano())

	size := cfg.ReadBufferSize
	if size <= 0 {
		size = 4096
	}
	go c.readLoop(size)
	return c
}

// RemoteAddr returns the peer address, or a placeholder for non-socket streams
func (c *Connection) RemoteAddr() string {
	return c.remote
}

// State returns the current lifecycle state
func (c *Connection) State() ConnState {
	return ConnState(c.state.Load())
}

// LastSeen returns when bytes last arrived from the peer
func (c *Connection) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// Stats returns a snapshot of the traffic counters
func (c *Connection) Stats() ConnStats {
	return ConnStats{
		FramesIn:  c.framesIn.Load(),
		FramesOut: c.framesOut.Load(),
		BytesIn:   c.bytesIn.Load(),
		BytesOut:  c.bytesOut.Load(),
	}
}

// readLoop reads raw bytes from the stream until it fails
func (c *Connection) readLoop(size int) {
	defer close(c.chunks)

	for {
		tmp := make([]byte, size)
		n, err := c.rwc.Read(tmp)
		if n > 0 {
			c.lastSeen.Store(time.Now().UnixNano())
			c.bytesIn.Add(uint64(n))
			select {
			case c.chunks <- tmp[:n]:
			case <-c.closeCh:
				c.readErr = ErrClosed
				return
			}
		}
		if err != nil {
			c.readErr = c.classifyReadErr(err)
			c.state.CompareAndSwap(uint32(StateConnected), uint32(StateDisconnected))
			return
		}
		if n == 0 {
			c.readErr = ErrPeerDisconnected
			c.state.CompareAndSwap(uint32(StateConnected), uint32(StateDisconnected))
			return
		}
	}
}

func (c *Connection) classifyReadErr(err error) error {
	select {
	case <-c.closeCh:
		return ErrClosed
	default:
	}
	if errors.Is(err, io.EOF) {
		return ErrPeerDisconnected
	}
	return fmt.Errorf("%w: %v", ErrPeerDisconnected, err)
}

// Send frames and writes one message
func (c *Connection) Send(m Message) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	payload, err := Marshal(m)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if wd, ok := c.rwc.(writeDeadliner); ok && c.writeTimeout > 0 {
		_ = wd.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := WriteFrame(c.rwc, payload); err != nil {
		if errors.Is(err, ErrFrameTooLarge) {
			return err
		}
		return fmt.Errorf("%w: send %s: %v", ErrPeerDisconnected, m.Type(), err)
	}
	c.framesOut.Add(1)
	c.bytesOut.Add(uint64(FrameHeaderSize + len(payload)))
	return nil
}

// decodeBuffered returns the next complete message already in the buffer
func (c *Connection) decodeBuffered() (Message, error) {
	payload, consumed, err := nextFrame(c.buf)
	if err != nil || consumed == 0 {
		return nil, err
	}
	m, err := Unmarshal(payload)
	c.buf = append(c.buf[:0], c.buf[consumed:]...)
	if err != nil {
		return nil, err
	}
	c.framesIn.Add(1)
	return m, nil
}

// streamErr reports why the reader stopped
func (c *Connection) streamErr() error {
	if c.readErr != nil {
		return c.readErr
	}
	return ErrPeerDisconnected
}

// TryRecv returns the next message if one is fully buffered, without
// blocking. A nil message and nil error mean nothing has arrived yet
func (c *Connection) TryRecv() (Message, error) {
	for {
		if m, err := c.decodeBuffered(); m != nil || err != nil {
			return m, err
		}
		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return nil, c.streamErr()
			}
			c.buf = append(c.buf, chunk...)
		default:
			return nil, nil
		}
	}
}

// Recv blocks until a message arrives, the stream fails or ctx ends. An
// expired deadline reports ErrTimeout
func (c *Connection) Recv(ctx context.Context) (Message, error) {
	for {
		if m, err := c.decodeBuffered(); m != nil || err != nil {
			return m, err
		}
		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return nil, c.streamErr()
			}
			c.buf = append(c.buf, chunk...)
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		}
	}
}

// RecvBlocking waits at most timeout for the next message
func (c *Connection) RecvBlocking(timeout time.Duration) (Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Recv(ctx)
}

// Close tears down the stream; safe to call more than once
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(uint32(StateClosed))
		close(c.closeCh)
		err = c.rwc.Close()
	})
	return err
}
