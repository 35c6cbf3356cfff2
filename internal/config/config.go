// Package config loads process configuration from a TOML file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/edumarques81/stellar-listen/internal/infra/gateway"
)

// EnvPrefix prefixes every environment override, e.g. STELLAR_SERVER_PORT.
const EnvPrefix = "STELLAR"

// Config is the complete process configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Storage StorageConfig `mapstructure:"storage"`
	Audio   AudioConfig   `mapstructure:"audio"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig is the HTTP / Socket.IO listener.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	StaticDir      string   `mapstructure:"static_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GatewayConfig points at the REST backend.
type GatewayConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Production     bool   `mapstructure:"production"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// StorageConfig is the client-local database.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// AudioConfig is the MPD output device.
type AudioConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MPDHost     string `mapstructure:"mpd_host"`
	MPDPort     int    `mapstructure:"mpd_port"`
	MPDPassword string `mapstructure:"mpd_password"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ResolvedBaseURL returns base_url if set, else the environment default.
func (g GatewayConfig) ResolvedBaseURL() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return gateway.BaseURLFor(g.Production)
}

// Timeout returns the request timeout as a duration.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "3001",
			AllowedOrigins: []string{"*"},
		},
		Gateway: GatewayConfig{
			TimeoutSeconds: 30,
			UserAgent:      gateway.DefaultUserAgent,
		},
		Storage: StorageConfig{
			Path: "data/local.db",
		},
		Audio: AudioConfig{
			Enabled: false,
			MPDHost: "localhost",
			MPDPort: 6600,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path (TOML) on top of the defaults, then applies environment
// overrides. A .env file in the working directory is loaded first; a missing
// .env or config file is not an error, a malformed one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stellar-listen")
		v.AddConfigPath("$HOME/.config/")
		v.AddConfigPath(".")
	}

	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated env values arrive as a single element.
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("gateway.base_url", d.Gateway.BaseURL)
	v.SetDefault("gateway.production", d.Gateway.Production)
	v.SetDefault("gateway.timeout_seconds", d.Gateway.TimeoutSeconds)
	v.SetDefault("gateway.user_agent", d.Gateway.UserAgent)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("audio.enabled", d.Audio.Enabled)
	v.SetDefault("audio.mpd_host", d.Audio.MPDHost)
	v.SetDefault("audio.mpd_port", d.Audio.MPDPort)
	v.SetDefault("audio.mpd_password", d.Audio.MPDPassword)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func splitOrigins(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// Validate checks the values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port %q is not a number", c.Server.Port)
	}

	u, err := url.Parse(c.Gateway.ResolvedBaseURL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway.base_url %q is not a valid URL", c.Gateway.ResolvedBaseURL())
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		return fmt.Errorf("gateway.timeout_seconds must be positive, got %d", c.Gateway.TimeoutSeconds)
	}

	if c.Audio.Enabled && (c.Audio.MPDPort <= 0 || c.Audio.MPDPort > 65535) {
		return fmt.Errorf("audio.mpd_port %d out of range", c.Audio.MPDPort)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
