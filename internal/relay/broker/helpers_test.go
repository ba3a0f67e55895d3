package broker

import (
	"bytes"
	"errors"
	"io"
	"net"
	"runtime"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const ioWait = 2 * time.Second

// link - connected pair of loopback TCP connections.
type link struct{ clientConn, brokerConn net.Conn }

// addr - peer address of client side as broker sees it.
func (l link) addr() string {
	return l.brokerConn.RemoteAddr().String()
}

func listen(test *testing.T) net.Listener {
	test.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		test.Fatal("net.Listen:", err)
	}
	test.Cleanup(func() { ln.Close() })
	return ln
}

func connect(test *testing.T, ln net.Listener) link {
	test.Helper()
	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		test.Fatal("net.Dial:", err)
	}
	server, err := ln.Accept()
	if err != nil {
		client.Close()
		test.Fatal("net.Listener.Accept:", err)
	}
	test.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return link{client, server}
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// readN - reads exactly n bytes or fails the test.
func readN(test *testing.T, conn net.Conn, n int) []byte {
	test.Helper()
	conn.SetReadDeadline(time.Now().Add(ioWait))
	defer conn.SetReadDeadline(time.Time{})
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		test.Fatalf("unable to read %d byte(s) from %s: %v", n, conn.LocalAddr(), err)
	}
	return buf
}

// expectSilence - fails the test if any byte arrives during d.
func expectSilence(test *testing.T, conn net.Conn, d time.Duration) {
	test.Helper()
	conn.SetReadDeadline(time.Now().Add(d))
	defer conn.SetReadDeadline(time.Time{})
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if n > 0 {
		test.Errorf("unexpected data for %s: %q", conn.LocalAddr(), buf[:n])
		return
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		test.Errorf("expected read timeout for %s, got: %v", conn.LocalAddr(), err)
	}
}

func send(test *testing.T, conn net.Conn, data []byte) {
	test.Helper()
	if _, err := conn.Write(data); err != nil {
		test.Fatalf("unable to send %q: %v", data, err)
	}
}

func waitJoin(test *testing.T, join <-chan JoinEvent, addr string) {
	test.Helper()
	timeout := time.After(ioWait)
	for {
		select {
		case event := <-join:
			if event.Addr == addr {
				return
			}
		case <-timeout:
			test.Fatal("there is no join event for", addr)
		}
	}
}

func waitPart(test *testing.T, part <-chan PartEvent, addr string) PartEvent {
	test.Helper()
	timeout := time.After(ioWait)
	for {
		select {
		case event := <-part:
			if event.Addr == addr {
				return event
			}
		case <-timeout:
			test.Fatal("there is no part event for", addr)
		}
	}
}

// brokenConn - connection which is unable to write.
type brokenConn struct{ net.Conn }

func (brokenConn) Write([]byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

// chunkyConn - accepts at most step bytes on every write and yields the processor,
// so unsynchronized writers would interleave.
type chunkyConn struct {
	net.Conn
	step int
	mu   sync.Mutex
	buf  bytes.Buffer
}

func (c *chunkyConn) Write(p []byte) (int, error) {
	if len(p) > c.step {
		p = p[:c.step]
	}
	c.mu.Lock()
	c.buf.Write(p)
	c.mu.Unlock()
	runtime.Gosched()
	return len(p), nil
}

func (c *chunkyConn) Close() error { return nil }
