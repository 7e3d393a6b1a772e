// Package app wires the warden server runtime: config, logging, stores, and
// the HTTP surface.
//
// It is intentionally small and deterministic so that a misconfigured
// deployment fails at startup, not on the first login.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/account"
	authapi "warden/cmd/internal/auth/api"
	"warden/cmd/internal/auth/csrf"
	"warden/cmd/internal/auth/session"
	"warden/cmd/internal/kv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the warden server runtime. It owns the lifecycle of the database
// pool and the kv connection.
type App struct {
	cfg Config
	log Logger

	store      kv.Store
	storeClose func()
	redisOn    bool

	dbPool *pgxpool.Pool

	metrics *Metrics
	auth    *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	ctx := context.Background()

	store, storeClose, err := newKVStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		users  identity.Store
		dbPool *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		dbPool, err = NewDBPool(ctx, cfg)
		if err != nil {
			storeClose()
			return nil, err
		}
		users, err = identity.NewPostgresStore(dbPool)
		if err != nil {
			dbPool.Close()
			storeClose()
			return nil, err
		}
		log.Info("db.enabled.postgres_users")
	} else {
		log.Warn("db.disabled.inmemory_users")
		users = identity.NewMemoryStore()
	}

	fail := func(err error) (*App, error) {
		if dbPool != nil {
			dbPool.Close()
		}
		storeClose()
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return fail(err)
	}
	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		return fail(err)
	}
	guard := csrf.NewGuard(store, csrf.DefaultTTL)
	sessions := session.NewService(sessCfg, store, codec, guard)

	accounts := account.NewService(account.LoadConfigFromEnv(), log, users, store, sessions, newMailer(cfg, log))

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, store, sessions, guard, accounts)
	if err != nil {
		return fail(err)
	}

	return &App{
		cfg:        cfg,
		log:        log,
		store:      store,
		storeClose: storeClose,
		redisOn:    cfg.RedisURL != "",
		dbPool:     dbPool,
		metrics:    NewMetrics(),
		auth:       auth,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.store, a.redisOn, a.metrics, a.auth)

	handler := WithRequestLogging(a.metrics.Instrument(mux), a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"db_enabled", a.dbPool != nil,
		"redis_enabled", a.redisOn,
	)

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

	if a.dbPool != nil {
		a.dbPool.Close()
	}
	a.storeClose()

	a.log.Info("server.stopped")
	return nil
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
