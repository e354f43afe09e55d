package session

import (
	"errors"
	"os"
	"strconv"
	"time"

	"fenster/cmd/security/token"
)

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("invalid session config")

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// AuthTTLDays is the auth-token validity in days.
	AuthTTLDays int

	// RefreshTTLDays is the refresh-token validity in days.
	// Must be strictly greater than AuthTTLDays.
	RefreshTTLDays int

	// TokenLength is the length of generated token strings.
	TokenLength int

	// LockTTL bounds how long a per-user advisory lock may be held before
	// the store expires it (crash safety).
	LockTTL time.Duration

	// LockWait bounds how long an operation waits to acquire the lock.
	LockWait time.Duration
}

// DefaultConfig returns the canonical token lifetimes: 7-day auth tokens,
// 14-day refresh tokens.
func DefaultConfig() Config {
	return Config{
		AuthTTLDays:    7,
		RefreshTTLDays: 14,
		TokenLength:    token.DefaultLength,
		LockTTL:        3 * time.Second,
		LockWait:       2 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - FENSTER_AUTH_TTL_DAYS
//   - FENSTER_REFRESH_TTL_DAYS
//   - FENSTER_TOKEN_LENGTH
//   - FENSTER_SESSION_LOCK_TTL
//   - FENSTER_SESSION_LOCK_WAIT
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("FENSTER_AUTH_TTL_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AuthTTLDays = n
	}

	if v := os.Getenv("FENSTER_REFRESH_TTL_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTLDays = n
	}

	if v := os.Getenv("FENSTER_TOKEN_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 8 || n > 128 {
			return Config{}, ErrConfig
		}
		cfg.TokenLength = n
	}

	if v := os.Getenv("FENSTER_SESSION_LOCK_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.LockTTL = d
	}

	if v := os.Getenv("FENSTER_SESSION_LOCK_WAIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.LockWait = d
	}

	// Invariant: a refresh token must outlive the auth token it renews.
	if cfg.RefreshTTLDays <= cfg.AuthTTLDays {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
