package relay

import (
	"net"
	"strconv"

	"go.uber.org/zap"
)

// Bind - listens TCP on every port of the ip.
// Ports which can not be bound are logged and skipped, so the result may be empty.
// Use "::" as ip to serve both IPv6 and IPv4 where the system supports dual-stack sockets.
func Bind(ip string, ports []uint, logger *zap.Logger) []net.Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	listeners := make([]net.Listener, 0, len(ports))
	for _, port := range ports {
		node := net.JoinHostPort(ip, strconv.FormatUint(uint64(port), 10))
		listener, err := net.Listen("tcp", node)
		if err != nil {
			logger.Warn("failed to bind", zap.String("address", node), zap.Error(err))
			continue
		}
		logger.Info("binding", zap.String("address", formatAddress(listener.Addr())))
		listeners = append(listeners, listener)
	}
	return listeners
}
