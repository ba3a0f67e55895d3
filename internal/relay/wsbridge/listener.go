// Package wsbridge exposes WebSocket clients as a net.Listener,
// so browsers can join the relay next to raw TCP peers.
package wsbridge

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Listener - accepts WebSocket connections on HTTP path.
type Listener struct {
	addr     addr
	server   *http.Server
	upgrader websocket.Upgrader
	logger   *zap.Logger

	conns     chan net.Conn
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ net.Listener = (*Listener)(nil)

// addr - listener address, network is "ws".
type addr struct {
	tcp  net.Addr
	path string
}

func (a addr) Network() string { return "ws" }
func (a addr) String() string  { return a.tcp.String() }

// Path - returns HTTP path of WebSocket endpoint.
func (a addr) Path() string { return a.path }

// Option - configures Listener.
type Option func(l *Listener)

// WithLogger - attach logger for upgrade failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithCheckOrigin - restricts accepted origins, any origin is accepted by default.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(l *Listener) {
		l.upgrader.CheckOrigin = check
	}
}

// WithBufferSize - overwrites IO buffer sizes of upgraded connections.
func WithBufferSize(read, write int) Option {
	return func(l *Listener) {
		l.upgrader.ReadBufferSize = read
		l.upgrader.WriteBufferSize = write
	}
}

// Listen - starts HTTP server on address, upgrading requests of path to WebSocket.
func Listen(address, path string, options ...Option) (*Listener, error) {
	if path == "" {
		path = "/"
	}
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		addr: addr{ln.Addr(), path},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: zap.NewNop(),
		conns:  make(chan net.Conn),
		done:   make(chan struct{}),
	}
	for _, option := range options {
		if option != nil {
			option(l)
		}
	}

	mux := http.NewServeMux()
	mux.Handle(path, l)
	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(l.logger),
	}
	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("websocket listener has stopped", zap.String("address", ln.Addr().String()), zap.Error(err))
		}
	}()
	return l, nil
}

// ServeHTTP - upgrades request and passes connection to Accept.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("websocket upgrade failed", zap.String("client", r.RemoteAddr), zap.Error(err))
		return
	}
	c := newConn(ws)
	select {
	case l.conns <- c:
	case <-l.done:
		c.Close()
	}
}

// Accept - waits for next upgraded connection.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, &net.OpError{Op: "accept", Net: "ws", Addr: l.addr, Err: net.ErrClosed}
	}
}

// Close - stops HTTP server, already accepted connections are not affected.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.closeErr = l.server.Close()
	})
	return l.closeErr
}

// Addr - returns listener address.
func (l *Listener) Addr() net.Addr {
	return l.addr
}
