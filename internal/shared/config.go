package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Mirrors  MirrorsConfig  `toml:"mirrors"`
	Device   DeviceConfig   `toml:"device"`
	Resolver ResolverConfig `toml:"resolver"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// StoreConfig points at the shared row store used for cross-device sync.
// When URL is empty the engine runs against the local sqlite store instead.
type StoreConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
	UserID string `toml:"user_id"`
}

// MirrorsConfig overrides the built-in mirror pools.
type MirrorsConfig struct {
	PoolA           []string `toml:"pool_a"`
	PoolB           []string `toml:"pool_b"`
	CurlHeadersPath string   `toml:"curl_headers_path"`
	RequestsPerSec  float64  `toml:"requests_per_sec"`
}

// DeviceConfig describes how this installation presents itself to peers.
type DeviceConfig struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	IDPath string `toml:"id_path"`
}

// ResolverConfig tunes stream resolution.
type ResolverConfig struct {
	Extractor      bool   `toml:"extractor"`
	DefaultQuality string `toml:"default_quality"`
}

// DatabaseConfig contains local database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the local playback API.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies CHORUS_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overlays CHORUS_* environment variables onto the parsed config.
func (c *Config) applyEnv() {
	c.Store.URL = Getenv("CHORUS_STORE_URL", c.Store.URL)
	c.Store.APIKey = Getenv("CHORUS_STORE_KEY", c.Store.APIKey)
	c.Store.UserID = Getenv("CHORUS_USER_ID", c.Store.UserID)
	c.Device.Name = Getenv("CHORUS_DEVICE_NAME", c.Device.Name)
	c.Database.Path = Getenv("CHORUS_DB_PATH", c.Database.Path)
	if port := os.Getenv("CHORUS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
}
