package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/lazypower/ephemeral/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("EPHEMERAL_DB", "")
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Error("expected exists to be false")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.ListenAddr() != "127.0.0.1:37778" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.Archive.Backend != config.BackendSQLite || cfg.Archive.Cap != 100 {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if cfg.TickInterval() != 100*time.Millisecond || cfg.SettleDelay() != 1500*time.Millisecond {
		t.Errorf("timing = %v / %v", cfg.TickInterval(), cfg.SettleDelay())
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("EPHEMERAL_DB", "")

	type payload struct {
		Server struct {
			Port int `toml:"port"`
		} `toml:"server"`
		Archive struct {
			Backend   string `toml:"backend"`
			Cap       int    `toml:"cap"`
			RedisAddr string `toml:"redis_addr"`
		} `toml:"archive"`
		Engine struct {
			TickIntervalMS int    `toml:"tick_interval_ms"`
			Seed           uint64 `toml:"seed"`
		} `toml:"engine"`
		Logging struct {
			Level  string `toml:"level"`
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Server.Port = 9000
	custom.Archive.Backend = " Redis "
	custom.Archive.Cap = 10
	custom.Archive.RedisAddr = "localhost:6379"
	custom.Engine.TickIntervalMS = 50
	custom.Engine.Seed = 7
	custom.Logging.Level = "DEBUG"
	custom.Logging.Format = "json"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	path := writeConfig(t, string(data))

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Archive.Backend != config.BackendRedis || cfg.Archive.Cap != 10 {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if cfg.Engine.Seed != 7 || cfg.TickInterval() != 50*time.Millisecond {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFromEnvConfig(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 4242\n")
	t.Setenv("EPHEMERAL_CONFIG", path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Server.Port != 4242 {
		t.Errorf("port = %d, want 4242", cfg.Server.Port)
	}
}

func TestEnvDBOverridesArchivePath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("EPHEMERAL_DB", dbPath)
	path := writeConfig(t, "[archive]\npath = \"/tmp/file.db\"\n")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Archive.Path != dbPath {
		t.Errorf("archive.path = %q, want %q", cfg.Archive.Path, dbPath)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[server]\nprot = 1\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"port", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"cap", func(c *config.Config) { c.Archive.Cap = 0 }, "archive.cap"},
		{"backend", func(c *config.Config) { c.Archive.Backend = "floppy" }, "archive.backend"},
		{"postgres url", func(c *config.Config) { c.Archive.Backend = config.BackendPostgres }, "postgres_url"},
		{"redis addr", func(c *config.Config) { c.Archive.Backend = config.BackendRedis }, "redis_addr"},
		{"tick", func(c *config.Config) { c.Engine.TickIntervalMS = 0 }, "tick_interval_ms"},
		{"settle", func(c *config.Config) { c.Engine.SettleDelayMS = -1 }, "settle_delay_ms"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeConfig(t, "[logging]\nformat = \"Logfmt\"\n")
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("Load() error = %v, want logging.format error", err)
	}
}

func TestLoadNormalizesLogFormatCase(t *testing.T) {
	path := writeConfig(t, "[logging]\nformat = \" JSON \"\n")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Logging.Format)
	}
}
