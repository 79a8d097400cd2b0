package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}

	if cfg.Rooms.MaxParticipants != 10 {
		t.Errorf("Rooms.MaxParticipants = %d, want 10", cfg.Rooms.MaxParticipants)
	}
	if cfg.Detection.ReplayWindow != 2*time.Second {
		t.Errorf("Detection.ReplayWindow = %v, want 2s", cfg.Detection.ReplayWindow)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "empty server address",
			mutate: func(c *Config) {
				c.Server.Address = ""
			},
		},
		{
			name: "non-positive read timeout",
			mutate: func(c *Config) {
				c.Server.ReadTimeout = 0
			},
		},
		{
			name: "non-positive ping interval",
			mutate: func(c *Config) {
				c.WebSocket.PingInterval = 0
			},
		},
		{
			name: "non-positive outbound buffer",
			mutate: func(c *Config) {
				c.WebSocket.OutboundBufferSize = 0
			},
		},
		{
			name: "negative max message size",
			mutate: func(c *Config) {
				c.WebSocket.MaxMessageSizeBytes = -1
			},
		},
		{
			name: "non-positive max participants",
			mutate: func(c *Config) {
				c.Rooms.MaxParticipants = 0
			},
		},
		{
			name: "non-positive replay window",
			mutate: func(c *Config) {
				c.Detection.ReplayWindow = 0
			},
		},
		{
			name: "non-positive source idle timeout",
			mutate: func(c *Config) {
				c.Detection.SourceIdleTimeout = 0
			},
		},
		{
			name: "tracing enabled without jaeger url",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.JaegerURL = ""
			},
		},
		{
			name: "sample rate out of range",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SampleRate = 1.5
			},
		},
		{
			name: "empty log level",
			mutate: func(c *Config) {
				c.Logging.Level = ""
			},
		},
		{
			name: "rate limiting enabled with zero rps",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.HTTP.RequestsPerSecond = 0
			},
		},
		{
			name: "rate limiting enabled with zero burst",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.HTTP.Burst = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %q, got nil", tc.name)
			}
		})
	}
}

func TestValidate_RateLimitingDisabled_AllowsZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 0
	cfg.RateLimiting.HTTP.Burst = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config to be valid when rate limiting disabled, got error: %v", err)
	}
}

func TestLoad_MissingFile_FallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":8080")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  address: ":9999"
websocket:
  ping_interval: 5s
rooms:
  max_participants: 4
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":9999" {
		t.Errorf("Server.Address = %q, want :9999", cfg.Server.Address)
	}
	if cfg.WebSocket.PingInterval != 5*time.Second {
		t.Errorf("WebSocket.PingInterval = %v, want 5s", cfg.WebSocket.PingInterval)
	}
	if cfg.Rooms.MaxParticipants != 4 {
		t.Errorf("Rooms.MaxParticipants = %d, want 4", cfg.Rooms.MaxParticipants)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Detection.SourceIdleTimeout != 10*time.Minute {
		t.Errorf("Detection.SourceIdleTimeout = %v, want 10m", cfg.Detection.SourceIdleTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VERISTREAM_SERVER_ADDRESS", ":7070")
	t.Setenv("VERISTREAM_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":7070" {
		t.Errorf("Server.Address = %q, want :7070", cfg.Server.Address)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}
