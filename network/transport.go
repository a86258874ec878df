package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
)

// Listener accepts versus connections on a TCP address
type Listener struct {
	config   *Config
	listener net.Listener
	running  atomic.Bool
}

// Listen binds the configured address
func Listen(ctx context.Context, cfg *Config) (*Listener, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Address, err)
	}
	l := &Listener{config: cfg, listener: ln}
	l.running.Store(true)
	return l, nil
}

// Addr returns the bound address
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Accept waits for one peer. Cancelling ctx closes the listener
func (l *Listener) Accept(ctx context.Context) (*Connection, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := l.listener.Accept()
		done <- result{conn, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("accept: %w", r.err)
		}
		setNoDelay(r.conn)
		return NewConnection(r.conn, l.config), nil
	case <-ctx.Done():
		l.Close()
		if r := <-done; r.conn != nil {
			r.conn.Close()
		}
		return nil, ctx.Err()
	}
}

// Close stops listening
func (l *Listener) Close() error {
	if !l.running.CompareAndSwap(true, false) {
		return nil
	}
	err := l.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Dial connects to a host over TCP
func Dial(ctx context.Context, cfg *Config) (*Connection, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}
	setNoDelay(conn)
	return NewConnection(conn, cfg), nil
}

// setNoDelay disables Nagle's algorithm; snapshots are small and latency bound
func setNoDelay(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
}
