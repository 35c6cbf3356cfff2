package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/edumarques81/stellar-listen/internal/config"
	"github.com/edumarques81/stellar-listen/internal/infra/gateway"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stellar-listen.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Gateway.ResolvedBaseURL() != gateway.DevelopmentBaseURL {
		t.Errorf("expected development URL, got %s", cfg.Gateway.ResolvedBaseURL())
	}
	if cfg.Gateway.Timeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Gateway.Timeout())
	}
}

func TestResolvedBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		gw       config.GatewayConfig
		expected string
	}{
		{"development", config.GatewayConfig{}, gateway.DevelopmentBaseURL},
		{"production", config.GatewayConfig{Production: true}, gateway.ProductionBaseURL},
		{"explicit wins", config.GatewayConfig{Production: true, BaseURL: "http://api.local/"}, "http://api.local/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gw.ResolvedBaseURL(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = "4100"
allowed_origins = ["http://localhost:5173"]

[gateway]
production = true
timeout_seconds = 10

[audio]
enabled = true
mpd_port = 6601

[log]
level = "debug"
format = "json"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "4100" {
		t.Errorf("expected port 4100, got %s", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"http://localhost:5173"}) {
		t.Errorf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Gateway.ResolvedBaseURL() != gateway.ProductionBaseURL {
		t.Errorf("expected production URL, got %s", cfg.Gateway.ResolvedBaseURL())
	}
	if !cfg.Audio.Enabled || cfg.Audio.MPDPort != 6601 || cfg.Audio.MPDHost != "localhost" {
		t.Errorf("unexpected audio config %+v", cfg.Audio)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Storage.Path != "data/local.db" {
		t.Errorf("expected default storage path, got %s", cfg.Storage.Path)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Server.Port != "3001" {
		t.Errorf("expected default port, got %s", cfg.Server.Port)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "[server\nport = ")
	if _, err := config.Load(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STELLAR_SERVER_PORT", "4200")
	t.Setenv("STELLAR_GATEWAY_BASE_URL", "http://gateway.test/api/")
	t.Setenv("STELLAR_SERVER_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	path := writeConfig(t, "[server]\nport = \"4100\"\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "4200" {
		t.Errorf("expected env port 4200, got %s", cfg.Server.Port)
	}
	if cfg.Gateway.ResolvedBaseURL() != "http://gateway.test/api/" {
		t.Errorf("expected env base URL, got %s", cfg.Gateway.ResolvedBaseURL())
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		errSub string
	}{
		{"empty port", func(c *config.Config) { c.Server.Port = "" }, "server.port"},
		{"non-numeric port", func(c *config.Config) { c.Server.Port = "http" }, "server.port"},
		{"bad base url", func(c *config.Config) { c.Gateway.BaseURL = "not a url" }, "gateway.base_url"},
		{"zero timeout", func(c *config.Config) { c.Gateway.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"mpd port out of range", func(c *config.Config) {
			c.Audio.Enabled = true
			c.Audio.MPDPort = 70000
		}, "mpd_port"},
		{"unknown log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("expected error containing %q, got %v", tt.errSub, err)
			}
		})
	}
}
