package relay

import (
	"errors"

	"go.uber.org/zap"

	"github.com/wtask/relay/internal/relay/broker"
)

// BrokerBuilder - helps to build custom broker.Broker with required dependencies.
type BrokerBuilder func(
	join chan<- broker.JoinEvent,
	part chan<- broker.PartEvent,
	logger *zap.Logger,
) (*broker.Broker, error)

// DefaultBroker - returns builder which attaches server event channels and logger
// to broker with given options.
func DefaultBroker(options ...broker.Option) BrokerBuilder {
	return func(
		join chan<- broker.JoinEvent,
		part chan<- broker.PartEvent,
		logger *zap.Logger,
	) (*broker.Broker, error) {
		if join == nil {
			return nil, errors.New("relay.DefaultBroker: broker.JoinEvent chan is required")
		}
		if part == nil {
			return nil, errors.New("relay.DefaultBroker: broker.PartEvent chan is required")
		}
		if logger == nil {
			logger = zap.NewNop()
		}
		opts := make([]broker.Option, 0, len(options)+3)
		opts = append(opts, options...)
		opts = append(
			opts,
			broker.WithJoinChan(join),
			broker.WithPartChan(part),
			broker.WithLogger(logger.Named("broker")),
		)
		return broker.New(opts...)
	}
}
