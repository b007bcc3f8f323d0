package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if c.Engine.TickIntervalMS <= 0 {
		return errors.New("engine.tick_interval_ms must be positive")
	}
	if c.Engine.SettleDelayMS < 0 {
		return errors.New("engine.settle_delay_ms must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.Cap <= 0 {
		return errors.New("archive.cap must be positive")
	}
	switch c.Archive.Backend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.Archive.PostgresURL == "" {
			return errors.New("archive.postgres_url is required for the postgres backend")
		}
	case BackendRedis:
		if c.Archive.RedisAddr == "" {
			return errors.New("archive.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("archive.backend %q is not one of sqlite, memory, postgres, redis", c.Archive.Backend)
	}
	return nil
}
