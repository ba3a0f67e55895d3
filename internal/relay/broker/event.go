package broker

import "time"

// NetEvent - base event related to relay peer.
type NetEvent struct {
	Addr       string
	OriginTime time.Time
}

// JoinEvent - occurres after new peer was registered.
type JoinEvent struct {
	NetEvent
}

// PartAction - describes the type of parting with peer.
type PartAction int

const (
	_ PartAction = iota
	// PartActionLeft - the peer has closed connection.
	PartActionLeft
	// PartActionFailed - the parting is occurred due to read error.
	PartActionFailed
	// PartActionTimeout - the parting is occurred due to idle timeout.
	PartActionTimeout
	// PartActionShutdown - the connection was closed by stopping broker.
	PartActionShutdown
)

func (a PartAction) String() string {
	switch a {
	case PartActionLeft:
		return "left"
	case PartActionFailed:
		return "failed"
	case PartActionTimeout:
		return "timed out"
	case PartActionShutdown:
		return "shutdown"
	default:
		return "unknown part action"
	}
}

// PartEvent - occurres after the peer was deregistered and closed.
type PartEvent struct {
	NetEvent
	Action PartAction
	// Err - read error which caused parting, nil for orderly close.
	Err error
}
