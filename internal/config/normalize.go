package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)

	c.Archive.Backend = strings.ToLower(strings.TrimSpace(c.Archive.Backend))
	if c.Archive.Backend == "" {
		c.Archive.Backend = BackendSQLite
	}
	if v := strings.TrimSpace(os.Getenv("EPHEMERAL_DB")); v != "" {
		c.Archive.Path = v
	}
	path, err := expandPath(strings.TrimSpace(c.Archive.Path))
	if err != nil {
		return err
	}
	c.Archive.Path = path
	c.Archive.PostgresURL = strings.TrimSpace(c.Archive.PostgresURL)
	c.Archive.RedisAddr = strings.TrimSpace(c.Archive.RedisAddr)
	c.Archive.RedisKey = strings.TrimSpace(c.Archive.RedisKey)

	tables, err := expandPath(strings.TrimSpace(c.Engine.TablesPath))
	if err != nil {
		return err
	}
	c.Engine.TablesPath = tables

	c.normalizeLogging()
	c.Metrics.Namespace = strings.TrimSpace(c.Metrics.Namespace)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
