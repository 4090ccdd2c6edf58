package store

import (
	"time"

	"timejar/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32

	// LogSQL logs every statement at debug; Slow flags statements at warn
	LogSQL bool
	Slow   time.Duration

	// boot: retries with capped exponential backoff, each ping bounded by PingTimeout
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled      bool
	URL          string
	MaxOpenConns int
	Role         string
}

// ConfigFromEnv reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_*.
// app names the connection on the server side; role tags clickhouse queries
func ConfigFromEnv(cfg config.Conf, app, role string) Config {
	pg := cfg.Prefix("SERVICE_PGSQL_")
	ch := cfg.Prefix("SERVICE_CLICKHOUSE_")
	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:        pg.MayBool("ENABLED", false),
			URL:            pg.MayString("URL", ""),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 4)),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			Slow:           pg.MayDuration("SLOW", 500*time.Millisecond),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 6),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled:      ch.MayBool("ENABLED", false),
			URL:          ch.MayString("URL", ""),
			MaxOpenConns: ch.MayInt("MAX_OPEN_CONNS", 4),
			Role:         role,
		},
	}
}
