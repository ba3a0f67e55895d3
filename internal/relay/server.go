package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/relay/internal/relay/broker"
	"github.com/wtask/relay/pkg/background"
)

// Server - represents relay server over any net.Listener implementations.
// All listeners share the same broker, so peers connected to different listeners
// receive each other's data.
type Server struct {
	scope  *background.Scope // accept loops
	events *background.Scope // join and part events handler
	logger *zap.Logger

	broker *broker.Broker
	join   <-chan broker.JoinEvent
	part   <-chan broker.PartEvent
}

// ServerOption - configures Server.
type ServerOption func(s *Server) error

// WithLogger - attach logger to server and its broker.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("relay.WithLogger: logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// NewServer - creates new relay server which is ready to serve several network listeners.
func NewServer(buildBroker BrokerBuilder, options ...ServerOption) (*Server, error) {
	if buildBroker == nil {
		return nil, errors.New("relay.NewServer: required relay.BrokerBuilder is nil")
	}
	scope, _ := background.NewScope()
	events, _ := background.NewScope()
	s := &Server{
		scope:  scope,
		events: events,
		logger: zap.NewNop(),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			scope.Cancel()
			events.Cancel()
			return nil, err
		}
	}

	join := make(chan broker.JoinEvent)
	part := make(chan broker.PartEvent)
	b, err := buildBroker(join, part, s.logger)
	if err != nil {
		scope.Cancel()
		events.Cancel()
		return nil, fmt.Errorf("relay.NewServer: can't build broker: %w", err)
	}
	s.broker, s.join, s.part = b, join, part
	s.events.Go(s.handleEvents)
	return s, nil
}

// AcceptLoop - accepts connections of a single listener and passes them to the broker.
type AcceptLoop struct {
	listener net.Listener
	done     chan struct{}
}

// Addr - returns listener address.
func (l *AcceptLoop) Addr() net.Addr {
	return l.listener.Addr()
}

// Done - returns channel which is closed when the loop has stopped.
func (l *AcceptLoop) Done() <-chan struct{} {
	return l.done
}

// Wait - blocks until the loop has stopped.
func (l *AcceptLoop) Wait() {
	<-l.done
}

// Start - starts accept loop for every listener in background.
// Loops normally run until Shutdown, they do not stop on accept errors.
func (s *Server) Start(listeners []net.Listener) ([]*AcceptLoop, error) {
	if len(listeners) == 0 {
		return nil, ErrNoListeners
	}
	loops := make([]*AcceptLoop, 0, len(listeners))
	for _, listener := range listeners {
		if listener == nil {
			continue
		}
		loop := &AcceptLoop{listener: listener, done: make(chan struct{})}
		if !s.scope.Go(func(ctx context.Context) { s.serve(ctx, loop) }) {
			return loops, ErrServerClosed
		}
		loops = append(loops, loop)
	}
	if len(loops) == 0 {
		return nil, ErrNoListeners
	}
	return loops, nil
}

func (s *Server) serve(ctx context.Context, loop *AcceptLoop) {
	defer close(loop.done)
	stop := context.AfterFunc(ctx, func() { loop.listener.Close() })
	defer stop()

	addr := formatAddress(loop.listener.Addr())
	s.logger.Info("accepting", zap.String("listener", addr))
	defer s.logger.Info("listener closed", zap.String("listener", addr))

	var delay time.Duration
	for {
		conn, err := loop.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			delay = acceptDelay(delay)
			s.logger.Warn(
				"failed to accept",
				zap.String("listener", addr),
				zap.Duration("retry", delay),
				zap.Error(err),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			continue
		}
		delay = 0

		if err := s.broker.KeepConnection(conn); err != nil {
			s.logger.Warn(
				"connection refused",
				zap.String("client", remoteAddress(conn)),
				zap.String("listener", addr),
				zap.Error(err),
			)
			conn.Close()
		}
	}
}

// Peers - returns sorted addresses of connected peers.
func (s *Server) Peers() []string {
	return s.broker.Peers()
}

// Shutdown - stops server with the specified timeout and returns stopping duration.
// Listeners are closed, then all peers are disconnected,
// events handler is stopped last to log parting of every peer.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	if s.scope.Expired() {
		return 0
	}
	from := time.Now()
	s.scope.Cancel()
	s.broker.Quit(timeout)
	s.events.Cancel()
	left := max(timeout-time.Since(from), time.Millisecond)
	if !s.scope.Wait(left) || !s.events.Wait(left) {
		s.logger.Warn("server is still running after shutdown timeout", zap.Duration("timeout", timeout))
	}
	return time.Since(from)
}

// handleEvents - logs join and part events in order they were received.
func (s *Server) handleEvents(ctx context.Context) {
	for {
		select {
		case event := <-s.join:
			s.logger.Info(
				"new client",
				zap.String("client", event.Addr),
				zap.Int("clients", s.broker.Len()),
			)
		case event := <-s.part:
			s.logger.Info(
				"disconnect client",
				zap.String("client", event.Addr),
				zap.Stringer("reason", event.Action),
				zap.Int("clients", s.broker.Len()),
			)
		case <-ctx.Done():
			return
		}
	}
}
