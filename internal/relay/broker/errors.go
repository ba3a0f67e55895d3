package broker

import "errors"

var (
	// ErrUnderStopCondition - returns in case if Broker is under stop condition
	// and will not accept any new connections, so you should close such connection by your own.
	ErrUnderStopCondition = errors.New("broker.Broker: under stop condition")

	// ErrConnKept - returns in case if a connection with the same peer address is kept already.
	// The new connection is not registered, close it by your own.
	ErrConnKept = errors.New("broker.Broker: connection is kept already")

	// ErrNoAddress - returns when peer address can not be resolved for connection.
	ErrNoAddress = errors.New("broker.Broker: connection has no peer address")

	// ErrPeerClosed - returns on IO attempt over closed peer.
	ErrPeerClosed = errors.New("broker.Peer: closed")
)
