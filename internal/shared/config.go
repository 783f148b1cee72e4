package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	LogLevel    string            `toml:"log_level"`
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Session     SessionConfig     `toml:"session"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Only the proxy needs the secret; the terminal client needs the ID and redirect URI to build the authorize URL.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig contains token exchange proxy settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimit      float64  `toml:"rate_limit"` // requests per second, 0 disables
	Burst          int      `toml:"burst"`
}

// SessionConfig contains client session controller settings.
type SessionConfig struct {
	ProxyURL       string   `toml:"proxy_url"`
	APIBaseURL     string   `toml:"api_base_url"`
	Store          string   `toml:"store"` // memory, sqlite or redis
	RefreshTimeout Duration `toml:"refresh_timeout"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// RedisConfig contains Redis connection settings for the shared token store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Duration wraps [time.Duration] with TOML text decoding ("15s", "1m").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// envOverrides are the only environment options the proxy recognizes.
type envOverrides struct {
	ClientID     string `env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string `env:"SPOTIFY_REDIRECT_URI"`
	Port         int    `env:"PORT"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overlays environment variables onto the config.
func ApplyEnv(config *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if overrides.ClientID != "" {
		config.Credentials.Spotify.ClientID = overrides.ClientID
	}
	if overrides.ClientSecret != "" {
		config.Credentials.Spotify.ClientSecret = overrides.ClientSecret
	}
	if overrides.RedirectURI != "" {
		config.Credentials.Spotify.RedirectURI = overrides.RedirectURI
	}
	if overrides.Port != 0 {
		config.Server.Port = overrides.Port
	}
	return nil
}

// ValidateProxy checks the settings the token exchange proxy cannot start without.
func (c *Config) ValidateProxy() error {
	spotify := c.Credentials.Spotify
	switch {
	case spotify.ClientID == "":
		return &ConfigurationError{Field: "client_id"}
	case spotify.ClientSecret == "":
		return &ConfigurationError{Field: "client_secret"}
	case spotify.RedirectURI == "":
		return &ConfigurationError{Field: "redirect_uri"}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// ValidateSession checks the settings the terminal client needs.
func (c *Config) ValidateSession() error {
	if c.Credentials.Spotify.ClientID == "" {
		return &ConfigurationError{Field: "client_id"}
	}
	if _, err := url.ParseRequestURI(c.Session.ProxyURL); err != nil {
		return fmt.Errorf("%w: proxy_url: %v", ErrInvalidConfig, err)
	}
	if _, err := url.ParseRequestURI(c.Session.APIBaseURL); err != nil {
		return fmt.Errorf("%w: api_base_url: %v", ErrInvalidConfig, err)
	}
	switch c.Session.Store {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Session.Store)
	}
	return nil
}

// ListenAddr returns the proxy's host:port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes the config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
