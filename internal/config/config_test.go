package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wtask/relay/internal/relay/broker"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func expectedLoaded() *Config {
	cfg := Default()
	cfg.Listen.Ports = []uint{9001, 9002}
	cfg.Listen.WebSocket = WebSocketConfig{Address: ":8080", Path: "/relay"}
	cfg.Relay.BufferSize = 1500
	cfg.Relay.ReadTimeout = 5 * time.Minute
	cfg.Logging.Level = "debug"
	return cfg
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "relay.toml", `
[listen]
ports = [9001, 9002]

[listen.websocket]
address = ":8080"
path = "/relay"

[relay]
buffer_size = 1500
read_timeout = "5m"

[logging]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal("Load:", err)
	}
	if diff := cmp.Diff(expectedLoaded(), cfg); diff != "" {
		t.Error("Load: mismatch (-expected +actual):\n", diff)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "relay.yaml", `
listen:
  ports: [9001, 9002]
  websocket:
    address: ":8080"
    path: /relay
relay:
  buffer_size: 1500
  read_timeout: 5m
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal("Load:", err)
	}
	if diff := cmp.Diff(expectedLoaded(), cfg); diff != "" {
		t.Error("Load: mismatch (-expected +actual):\n", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"missing":     filepath.Join(t.TempDir(), "absent.toml"),
		"unsupported": writeFile(t, "relay.ini", "ports=1"),
		"broken toml": writeFile(t, "relay.toml", "[listen\nports = ["),
		"broken yaml": writeFile(t, "relay.yml", "listen: [ports"),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(path); err == nil {
				t.Error("Load: expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Listen.Ports = []uint{9001}
		return cfg
	}
	if err := valid().Validate(); err != nil {
		t.Fatal("Validate: unexpected error for valid config:", err)
	}

	cases := map[string]func(*Config){
		"no ports":           func(c *Config) { c.Listen.Ports = nil },
		"port out of range":  func(c *Config) { c.Listen.Ports = []uint{70000} },
		"bad ws path":        func(c *Config) { c.Listen.WebSocket = WebSocketConfig{Address: ":1", Path: "relay"} },
		"zero buffer":        func(c *Config) { c.Relay.BufferSize = 0 },
		"huge buffer":        func(c *Config) { c.Relay.BufferSize = broker.MaxBufferSize + 1 },
		"negative read":      func(c *Config) { c.Relay.ReadTimeout = -1 },
		"negative write":     func(c *Config) { c.Relay.WriteTimeout = -1 },
		"unknown log format": func(c *Config) { c.Logging.Format = "xml" },
		"zero shutdown":      func(c *Config) { c.ShutdownTimeout = 0 },
	}
	for name, breakConfig := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			breakConfig(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate: expected error")
			}
		})
	}

	wsOnly := Default()
	wsOnly.Listen.WebSocket.Address = ":8080"
	if err := wsOnly.Validate(); err != nil {
		t.Error("Validate: websocket only config is rejected:", err)
	}
}
