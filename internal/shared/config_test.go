package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "chorus.db" {
			t.Errorf("expected database path chorus.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8321 {
			t.Errorf("expected server port 8321, got %d", config.Server.Port)
		}

		if config.Device.Type != "desktop" {
			t.Errorf("expected device type desktop, got %s", config.Device.Type)
		}

		if config.Resolver.DefaultQuality != "normal" {
			t.Errorf("expected default quality normal, got %s", config.Resolver.DefaultQuality)
		}

		if config.Resolver.Extractor {
			t.Error("extractor should default to off")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[store]
url = "https://sync.example.com"
api_key = "test_key"
user_id = "user-1"

[mirrors]
pool_a = ["https://mirror-a.example.com"]
requests_per_sec = 5.0

[device]
name = "living room"
type = "tv"

[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Store.URL != "https://sync.example.com" {
			t.Errorf("expected store url, got %s", config.Store.URL)
		}
		if config.Store.UserID != "user-1" {
			t.Errorf("expected user-1, got %s", config.Store.UserID)
		}
		if len(config.Mirrors.PoolA) != 1 || config.Mirrors.PoolA[0] != "https://mirror-a.example.com" {
			t.Errorf("unexpected pool A: %v", config.Mirrors.PoolA)
		}
		if config.Mirrors.RequestsPerSec != 5.0 {
			t.Errorf("expected 5.0 requests per sec, got %v", config.Mirrors.RequestsPerSec)
		}
		if config.Device.Name != "living room" {
			t.Errorf("expected device name, got %s", config.Device.Name)
		}
		if config.Server.Port != 8080 {
			t.Errorf("expected port 8080, got %d", config.Server.Port)
		}
	})

	t.Run("LoadConfigMissing", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("loading missing config should fail")
		}
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("CHORUS_STORE_URL", "https://env.example.com")
		t.Setenv("CHORUS_DB_PATH", "/env/chorus.db")
		t.Setenv("CHORUS_PORT", "9999")

		config := DefaultConfig()

		if config.Store.URL != "https://env.example.com" {
			t.Errorf("expected env store url, got %s", config.Store.URL)
		}
		if config.Database.Path != "/env/chorus.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
		if config.Server.Port != 9999 {
			t.Errorf("expected env port 9999, got %d", config.Server.Port)
		}
	})
}
