package broker

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Peer - relay connection with independently locked read and write sides.
// Only the owning session reads from the peer, while any other session may write to it.
type Peer struct {
	addr string
	conn net.Conn

	readTimeout, writeTimeout time.Duration

	readMu  sync.Mutex
	writeMu sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewPeer - wraps freshly accepted connection.
// Zero timeouts disable corresponding deadlines.
func NewPeer(addr string, conn net.Conn, readTimeout, writeTimeout time.Duration) *Peer {
	return &Peer{
		addr:         addr,
		conn:         conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// remoteAddress - default peer identifier.
func remoteAddress(conn net.Conn) string {
	if conn == nil || conn.RemoteAddr() == nil {
		return ""
	}
	return conn.RemoteAddr().String()
}

// Addr - returns peer address.
func (p *Peer) Addr() string {
	return p.addr
}

// Closed - reports the peer was closed.
func (p *Peer) Closed() bool {
	return p.closed.Load()
}

// ReadChunk - reads up to len(buf) bytes.
// Zero count with nil error means the peer has closed its side of connection.
func (p *Peer) ReadChunk(buf []byte) (int, error) {
	p.readMu.Lock()
	defer p.readMu.Unlock()
	if p.closed.Load() {
		return 0, ErrPeerClosed
	}
	if p.readTimeout > 0 {
		if err := p.conn.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
			return 0, fmt.Errorf("broker.Peer: set read deadline: %w", err)
		}
	}
	n, err := p.conn.Read(buf)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

// WriteAll - writes whole data or fails.
// Concurrent writers are serialized, so chunks are never interleaved.
func (p *Peer) WriteAll(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.closed.Load() {
		return ErrPeerClosed
	}
	if p.writeTimeout > 0 {
		if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return fmt.Errorf("broker.Peer: set write deadline: %w", err)
		}
	}
	for len(data) > 0 {
		n, err := p.conn.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

// Close - closes both sides of connection, it is safe to call it several times.
// Close does not wait for locks, so pending IO is released with error.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}
