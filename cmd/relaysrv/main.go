package main

import (
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wtask/relay/internal/config"
	"github.com/wtask/relay/internal/logging"
	"github.com/wtask/relay/internal/relay"
	"github.com/wtask/relay/internal/relay/broker"
	"github.com/wtask/relay/internal/relay/wsbridge"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, nil))
}

// run - launches relay server and blocks until it is stopped by signal or stop channel.
// Returns process exit code.
func run(args []string, out io.Writer, stop <-chan struct{}) int {
	cfg, err := parseCommandLine(args, out)
	switch {
	case isHelp(err):
		return exitOK
	case err != nil:
		printError(out, err)
		printSyntax(out)
		return exitUsage
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		printError(out, err)
		return exitUsage
	}
	defer logger.Sync()
	logger.Info("started with config", zap.String("version", Version), zap.Any("config", cfg))

	listeners := bind(cfg, logger)
	if len(listeners) == 0 {
		logger.Error("no IPv4 or IPv6 bind available")
		return exitNoBind
	}

	server, err := relay.NewServer(
		relay.DefaultBroker(
			broker.WithBufferSize(cfg.Relay.BufferSize),
			broker.WithReadTimeout(cfg.Relay.ReadTimeout),
			broker.WithWriteTimeout(cfg.Relay.WriteTimeout),
		),
		relay.WithLogger(logger),
	)
	if err != nil {
		logger.Error("can't start relay server", zap.Error(err))
		closeAll(listeners)
		return exitUsage
	}
	loops, err := server.Start(listeners)
	if err != nil {
		logger.Error("can't start relay server", zap.Error(err))
		closeAll(listeners)
		return exitNoBind
	}
	logger.Info("relay server has started", zap.Int("listeners", len(loops)))

	stopped := make(chan struct{})
	go func() {
		for _, loop := range loops {
			loop.Wait()
		}
		close(stopped)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		logger.Info("got stop signal", zap.Stringer("signal", s))
	case <-stop:
		logger.Info("got stop request")
	case <-stopped:
		logger.Warn("all listeners are closed")
	}
	logger.Info("relay server stopped", zap.Duration("in", server.Shutdown(cfg.ShutdownTimeout)))
	return exitOK
}

// bind - opens TCP listeners for configured ports and WebSocket listener if enabled.
func bind(cfg *config.Config, logger *zap.Logger) []net.Listener {
	listeners := relay.Bind(cfg.Listen.IP, cfg.Listen.Ports, logger)

	ws := cfg.Listen.WebSocket
	if ws.Address == "" {
		return listeners
	}
	listener, err := wsbridge.Listen(
		ws.Address,
		ws.Path,
		wsbridge.WithLogger(logger.Named("ws")),
		wsbridge.WithBufferSize(cfg.Relay.BufferSize, cfg.Relay.BufferSize),
	)
	if err != nil {
		logger.Warn("failed to bind", zap.String("address", ws.Address), zap.Error(err))
		return listeners
	}
	logger.Info("binding", zap.String("address", "ws "+listener.Addr().String()+ws.Path))
	return append(listeners, listener)
}

func closeAll(listeners []net.Listener) {
	for _, l := range listeners {
		l.Close()
	}
}
