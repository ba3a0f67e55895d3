package broker

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/relay/internal/relay/preview"
	"github.com/wtask/relay/pkg/background"
)

// partNotifyTimeout - time to deliver part event after the broker has started to quit.
const partNotifyTimeout = 100 * time.Millisecond

// Broker - relay connections keeper.
// Every chunk read from one kept connection is written to all other kept connections.
type Broker struct {
	readTimeout,
	writeTimeout time.Duration
	bufSize  int
	join     chan<- JoinEvent
	part     chan<- PartEvent
	logger   *zap.Logger
	identify func(net.Conn) string

	scope   *background.Scope
	clients *registry
}

// Option - configures Broker, see With* constructors.
type Option func(b *Broker) error

func setup(b *Broker, options ...Option) error {
	if b == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(b); err != nil {
			return err
		}
	}
	return nil
}

// New - builds Broker with needed options.
func New(options ...Option) (*Broker, error) {
	scope, _ := background.NewScope()
	b := &Broker{
		readTimeout:  0,
		writeTimeout: 30 * time.Second,
		bufSize:      4096,
		logger:       zap.NewNop(),
		identify:     remoteAddress,
		scope:        scope,
		clients:      newRegistry(),
	}

	if err := setup(b, options...); err != nil {
		scope.Cancel()
		return nil, err
	}

	return b, nil
}

// Quit - stops all sessions and waits they are done.
// Returns duration of time spent for quit. This time is never much longer than given timeout.
func (b *Broker) Quit(timeout time.Duration) time.Duration {
	if b.scope.Expired() {
		return 0
	}
	from := time.Now()
	b.scope.Cancel()
	if !b.scope.Wait(timeout) {
		b.logger.Warn("broker sessions are still running after quit timeout", zap.Duration("timeout", timeout))
	}
	return time.Since(from)
}

// Len - returns number of kept connections.
func (b *Broker) Len() int {
	return b.clients.len()
}

// Has - reports a connection with given peer address is kept.
func (b *Broker) Has(addr string) bool {
	_, ok := b.clients.get(addr)
	return ok
}

// Peers - returns sorted addresses of kept connections.
func (b *Broker) Peers() []string {
	return b.clients.addresses()
}

// KeepConnection - registers new net connection and starts its session in background.
// On error the connection is not kept and the caller is responsible to close it.
func (b *Broker) KeepConnection(conn net.Conn) error {
	if b.scope.Expired() {
		return ErrUnderStopCondition
	}
	addr := b.identify(conn)
	if addr == "" {
		return ErrNoAddress
	}

	p := NewPeer(addr, conn, b.readTimeout, b.writeTimeout)
	if !b.clients.add(p) {
		return ErrConnKept
	}
	if !b.scope.Go(func(ctx context.Context) { b.session(ctx, p) }) {
		b.clients.delete(p)
		return ErrUnderStopCondition
	}
	return nil
}

// session - reads peer until it is closed and relays every chunk to others,
// then deregisters and closes the peer.
// Join and part events of the peer are sent from here, so they are always ordered.
func (b *Broker) session(ctx context.Context, p *Peer) {
	stop := context.AfterFunc(ctx, func() { p.Close() })
	defer stop()

	joined := b.notifyJoin(ctx, p)
	action, err := b.relay(p)

	b.clients.delete(p)
	if ctx.Err() != nil {
		action, err = PartActionShutdown, nil
	}
	if err != nil && !p.Closed() {
		b.logger.Warn("failed to read", zap.String("client", p.addr), zap.Error(err))
	}
	p.Close()
	if joined {
		b.notifyPart(ctx, p, action, err)
	}
}

func (b *Broker) relay(p *Peer) (PartAction, error) {
	buf := make([]byte, b.bufSize)
	for {
		n, err := p.ReadChunk(buf)
		if n > 0 {
			b.logger.Debug(
				"read",
				zap.String("client", p.addr),
				zap.Int("size", n),
				zap.Stringer("data", preview.Bytes(buf[:n])),
			)
			b.broadcast(p, buf[:n])
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return PartActionTimeout, err
			}
			return PartActionFailed, err
		}
		if n == 0 {
			return PartActionLeft, nil
		}
	}
}

// broadcast - writes chunk to every kept peer except the sender.
// Failed write is logged and does not break the delivery to other peers.
// Returns number of peers the chunk was delivered to.
func (b *Broker) broadcast(sender *Peer, chunk []byte) int {
	delivered := 0
	for _, target := range b.clients.snapshot() {
		if target.addr == sender.addr {
			continue
		}
		err := target.WriteAll(chunk)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrPeerClosed), target.Closed():
			// target is parting right now
			b.logger.Debug("skip closed client", zap.String("client", target.addr))
		default:
			b.logger.Warn(
				"failed to write",
				zap.String("client", target.addr),
				zap.String("from", sender.addr),
				zap.Error(err),
			)
		}
	}
	return delivered
}

// notifyJoin - propagates join event if join channel available.
// Returns false when the broker was stopped before the event was received,
// part event is not sent for such peer.
func (b *Broker) notifyJoin(ctx context.Context, p *Peer) bool {
	if b.join == nil {
		return true
	}
	select {
	case b.join <- JoinEvent{NetEvent{p.addr, time.Now().UTC()}}:
		return true
	case <-ctx.Done():
		return false
	}
}

// notifyPart - propagates part event if part channel available.
// While the broker is quitting the event waits for receiver no longer than partNotifyTimeout.
func (b *Broker) notifyPart(ctx context.Context, p *Peer, action PartAction, err error) {
	if b.part == nil {
		return
	}
	event := PartEvent{NetEvent{p.addr, time.Now().UTC()}, action, err}
	select {
	case b.part <- event:
		return
	case <-ctx.Done():
	}

	timer := time.NewTimer(partNotifyTimeout)
	defer timer.Stop()
	select {
	case b.part <- event:
	case <-timer.C:
		b.logger.Debug("part event is dropped", zap.String("client", p.addr), zap.Stringer("reason", action))
	}
}
