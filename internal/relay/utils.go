package relay

import (
	"fmt"
	"net"
	"time"
)

// formatAddress - formats specified network address for logging purposes.
func formatAddress(a net.Addr) string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s", a.Network(), a.String())
}

// remoteAddress - returns peer address of connection for logging purposes.
func remoteAddress(c net.Conn) string {
	if c == nil || c.RemoteAddr() == nil {
		return ""
	}
	return c.RemoteAddr().String()
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// acceptDelay - returns next pause before retrying failed accept.
func acceptDelay(prev time.Duration) time.Duration {
	if prev <= 0 {
		return minAcceptDelay
	}
	if next := prev * 2; next < maxAcceptDelay {
		return next
	}
	return maxAcceptDelay
}
