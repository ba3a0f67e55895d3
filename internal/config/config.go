// Package config holds relay server settings: defaults, file loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wtask/relay/internal/relay/broker"
)

// Config - relay server settings.
type Config struct {
	Listen          ListenConfig  `toml:"listen" yaml:"listen"`
	Relay           RelayConfig   `toml:"relay" yaml:"relay"`
	Logging         LoggingConfig `toml:"logging" yaml:"logging"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ListenConfig - addresses to accept peers on.
type ListenConfig struct {
	IP        string          `toml:"ip" yaml:"ip"` // "::" binds IPv6 and IPv4 on dual-stack systems
	Ports     []uint          `toml:"ports" yaml:"ports"`
	WebSocket WebSocketConfig `toml:"websocket" yaml:"websocket"`
}

// WebSocketConfig - enables WebSocket ingress when Address is not empty.
type WebSocketConfig struct {
	Address string `toml:"address" yaml:"address"`
	Path    string `toml:"path" yaml:"path"`
}

// RelayConfig - peer IO limits.
type RelayConfig struct {
	BufferSize   int           `toml:"buffer_size" yaml:"buffer_size"`     // max chunk size relayed at once
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout"`   // 0 = never drop idle peers
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout"` // per chunk per target
}

// LoggingConfig - logger level and output format.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// Default - returns configuration with default values.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			IP: "::",
			WebSocket: WebSocketConfig{
				Path: "/",
			},
		},
		Relay: RelayConfig{
			BufferSize:   4096,
			ReadTimeout:  0,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load - reads configuration file over defaults.
// The format is chosen by extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate - reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Listen.Ports) == 0 && c.Listen.WebSocket.Address == "" {
		return errors.New("no port to listen")
	}
	for _, port := range c.Listen.Ports {
		if port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
	}
	if c.Listen.WebSocket.Address != "" && !strings.HasPrefix(c.Listen.WebSocket.Path, "/") {
		return fmt.Errorf("invalid websocket path %q", c.Listen.WebSocket.Path)
	}
	if c.Relay.BufferSize <= 0 || c.Relay.BufferSize > broker.MaxBufferSize {
		return fmt.Errorf("invalid buffer size %d, expected 1..%d", c.Relay.BufferSize, broker.MaxBufferSize)
	}
	if c.Relay.ReadTimeout < 0 {
		return fmt.Errorf("invalid read timeout %v", c.Relay.ReadTimeout)
	}
	if c.Relay.WriteTimeout < 0 {
		return fmt.Errorf("invalid write timeout %v", c.Relay.WriteTimeout)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %v", c.ShutdownTimeout)
	}
	return nil
}
