package relay

import "errors"

var (
	// ErrNoListeners - returns when server is started without any listener.
	// It differs from the case of no connected peers, which is a normal condition.
	ErrNoListeners = errors.New("relay.Server: no listeners to serve")

	// ErrServerClosed - returns on attempt to start server after shutdown.
	ErrServerClosed = errors.New("relay.Server: closed")
)
