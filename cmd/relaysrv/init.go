package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/wtask/relay/internal/config"
)

const (
	exitOK     = 0
	exitUsage  = 1
	exitNoBind = 2
)

var (
	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	// Version - app version fingerprint
	Version = "0.4.0"
)

func printSyntax(out io.Writer) {
	fmt.Fprintf(out, "Syntax: %s [options] <port> [<port2> ...]\n", BinaryName)
}

func printUsage(out io.Writer, flags *flag.FlagSet) {
	fmt.Fprintf(out, "Relay bytes between all clients connected over TCP\n\n\t%s [options] <port> [<port2> ...]\n\nOptions:\n\n", BinaryName)
	flags.PrintDefaults()
	fmt.Fprint(out, "\n")
}

func printError(out io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(out, "%s (v%s) error:\n\n\t%s\n\n", BinaryName, Version, err)
}

// parseCommandLine - builds configuration from optional config file and command line.
// Positional arguments are ports, flags set explicitly win over file values.
// Returns flag.ErrHelp when usage help was requested.
func parseCommandLine(args []string, out io.Writer) (*config.Config, error) {
	flags := flag.NewFlagSet(BinaryName, flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { printUsage(out, flags) }

	defaults := config.Default()
	help := flags.Bool("help", false, "Print usage help")
	configPath := flags.String("config", "", "Path to TOML (.toml) or YAML (.yaml, .yml) configuration file")
	ip := flags.String("ip", defaults.Listen.IP, "Listen address for every port")
	bufSize := flags.Int("buffer-size", defaults.Relay.BufferSize, "Max size in bytes of a chunk relayed at once")
	readTimeout := flags.Duration("read-timeout", defaults.Relay.ReadTimeout, "Idle period before client is disconnected, 0 to keep idle clients")
	writeTimeout := flags.Duration("write-timeout", defaults.Relay.WriteTimeout, "Time limit to deliver a chunk to one client, 0 for no limit")
	wsAddr := flags.String("ws", "", "Address of WebSocket listener, e.g. :8080 (disabled when empty)")
	wsPath := flags.String("ws-path", defaults.Listen.WebSocket.Path, "HTTP path of WebSocket endpoint")
	logLevel := flags.String("log-level", defaults.Logging.Level, "Log level: debug, info, warn, error")
	logFormat := flags.String("log-format", defaults.Logging.Format, "Log format: console or json")
	shutdownTimeout := flags.Duration("shutdown-timeout", defaults.ShutdownTimeout, "Time limit to disconnect clients on stop")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if *help {
		printUsage(out, flags)
		return nil, flag.ErrHelp
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ip":
			cfg.Listen.IP = *ip
		case "buffer-size":
			cfg.Relay.BufferSize = *bufSize
		case "read-timeout":
			cfg.Relay.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.Relay.WriteTimeout = *writeTimeout
		case "ws":
			cfg.Listen.WebSocket.Address = *wsAddr
		case "ws-path":
			cfg.Listen.WebSocket.Path = *wsPath
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		case "shutdown-timeout":
			cfg.ShutdownTimeout = *shutdownTimeout
		}
	})

	if flags.NArg() > 0 {
		ports := make([]uint, 0, flags.NArg())
		for _, arg := range flags.Args() {
			port, err := strconv.ParseUint(arg, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid port %q", arg)
			}
			ports = append(ports, uint(port))
		}
		cfg.Listen.Ports = ports
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isHelp - reports err is a request for usage help.
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
