package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("FENSTER_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("FENSTER_LOG_LEVEL", "info"),
		LogFormat: EnvString("FENSTER_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("FENSTER_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("FENSTER_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("FENSTER_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("FENSTER_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("FENSTER_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("FENSTER_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("FENSTER_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("FENSTER_DB_MIN_CONNS", 0),

		RedisAddr:     EnvString("FENSTER_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: EnvString("FENSTER_REDIS_PASSWORD", ""),
		RedisDB:       EnvIntAllowZero("FENSTER_REDIS_DB", 0),
	}
}
