package config

const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	defaultLogLevel = "info"
)

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Archive: ArchiveConfig{
			Backend:  BackendSQLite,
			Cap:      100,
			RedisKey: "ephemeral:archive",
		},
		Engine: EngineConfig{
			TickIntervalMS: 100,
			SettleDelayMS:  1500,
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "ephemeral",
		},
	}
}
