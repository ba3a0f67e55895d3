package broker

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// MaxBufferSize - upper limit of read buffer size.
const MaxBufferSize = 1 << 20

// WithJoinChan - attach channel to be notified of peer is joined.
func WithJoinChan(join chan<- JoinEvent) Option {
	return func(b *Broker) error {
		if b.join != nil {
			return errors.New("broker.WithJoinChan: join-channel already set up")
		}
		b.join = join
		return nil
	}
}

// WithPartChan - attach channel to be notified of parting with peer.
func WithPartChan(part chan<- PartEvent) Option {
	return func(b *Broker) error {
		if b.part != nil {
			return errors.New("broker.WithPartChan: part-channel already set up")
		}
		b.part = part
		return nil
	}
}

// WithReadTimeout - sets idle period after which silent peer is disconnected.
// Zero timeout disables the idle check, it is the default.
func WithReadTimeout(timeout time.Duration) Option {
	return func(b *Broker) error {
		if timeout < 0 {
			return fmt.Errorf("broker.WithReadTimeout: invalid timeout (%v)", timeout)
		}
		b.readTimeout = timeout
		return nil
	}
}

// WithWriteTimeout - overwrites default write timeout of a single chunk delivery.
// Zero timeout means a write can block until the peer reads or disconnects.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(b *Broker) error {
		if timeout < 0 {
			return fmt.Errorf("broker.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		b.writeTimeout = timeout
		return nil
	}
}

// WithBufferSize - overwrites default read buffer size,
// which is the maximum size of a chunk relayed at once.
func WithBufferSize(size int) Option {
	return func(b *Broker) error {
		if size <= 0 || size > MaxBufferSize {
			return fmt.Errorf("broker.WithBufferSize: invalid size (%d)", size)
		}
		b.bufSize = size
		return nil
	}
}

// WithLogger - attach logger for connection and IO events.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Broker) error {
		if logger == nil {
			return errors.New("broker.WithLogger: logger is nil")
		}
		b.logger = logger
		return nil
	}
}

// WithIdentifier - overwrites the way the peer address is resolved for connection.
// Resolved address is the registry key, so it must be unique for every live connection.
func WithIdentifier(identify func(net.Conn) string) Option {
	return func(b *Broker) error {
		if identify == nil {
			return errors.New("broker.WithIdentifier: identifier is nil")
		}
		b.identify = identify
		return nil
	}
}
