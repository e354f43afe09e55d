// Package app wires the fenster server runtime: config, logging, storage
// handles, migrations, and HTTP routes.
//
// It is intentionally small and deterministic to keep behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"fenster/cmd/identity"
	authapi "fenster/cmd/internal/auth/api"
	"fenster/cmd/internal/auth/session"
	"fenster/cmd/security/password"
)

// App is the fenster server runtime. It owns the Postgres pool and the
// Redis client; everything else borrows them.
type App struct {
	cfg Config
	log Logger

	dbPool      *pgxpool.Pool
	redisClient redis.UniversalClient

	metrics *Metrics
	auth    *authapi.Handler
}

// New constructs a fully wired App instance from config and logger. It
// connects to Postgres and Redis, runs pending migrations, and builds the
// handler graph.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: FENSTER_DATABASE_URL is required")
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("db.ready")

	redisClient, err := NewRedisClient(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("redis.ready", "addr", cfg.RedisAddr)

	hashParams, err := password.ParamsFromEnv()
	if err != nil {
		return nil, closeAll(pool, redisClient, err)
	}
	users, err := identity.NewPostgresStore(pool, identity.WithHasher(hashParams))
	if err != nil {
		return nil, closeAll(pool, redisClient, err)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, closeAll(pool, redisClient, err)
	}
	sessions := session.NewManager(session.NewRedisStore(redisClient), sessCfg, log)

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, sessions)
	if err != nil {
		return nil, closeAll(pool, redisClient, err)
	}

	return &App{
		cfg:         cfg,
		log:         log,
		dbPool:      pool,
		redisClient: redisClient,
		metrics:     NewMetrics(),
		auth:        auth,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.dbPool, a.redisClient, a.metrics, a.auth)

	handler := WithSecurityHeaders(mux)
	handler = WithRequestLogging(handler, a.log, a.metrics)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases the storage handles. Safe to call more than once.
func (a *App) Close() {
	if a.redisClient != nil {
		_ = a.redisClient.Close()
		a.redisClient = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func closeAll(pool *pgxpool.Pool, client redis.UniversalClient, err error) error {
	_ = client.Close()
	pool.Close()
	return err
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
