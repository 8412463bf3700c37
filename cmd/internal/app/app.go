// Package app wires the liftlog server runtime: config, logging, storage,
// the auth routes and the session cleanup task.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"liftlog/cmd/identity"
	authapi "liftlog/cmd/internal/auth/api"
	"liftlog/cmd/internal/auth/flow"
	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/storage"
	"liftlog/cmd/security/password"

	"golang.org/x/sync/errgroup"
)

// dummyPassword is hashed at startup so logins for unknown usernames cost
// the same as logins with a wrong password.
const dummyPassword = "liftlog-timing-equalizer"

// App is the liftlog server runtime.
type App struct {
	cfg Config
	log Logger

	backend storage.Backend
	sweeper *session.Sweeper
	auth    *authapi.Handler
}

// New constructs a fully wired App. Session and password settings come from
// the environment (see session.LoadConfigFromEnv and password.FromEnv).
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	keys, err := sessCfg.Keys()
	if err != nil {
		return nil, err
	}
	codec := session.NewCodec(keys)

	pw, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	dummy, err := pw.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("app: dummy hash: %w", err)
	}

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	verifier := identity.NewVerifier(pw, identity.WithDummyHash(dummy))
	svc := flow.NewService(backend, codec, verifier, log)

	cookies := sessCfg.Cookies()
	requireSession := session.Middleware(codec, backend.Sessions(), cookies, log)

	auth, err := authapi.NewHandler(log, svc, cookies, requireSession, authapi.LoadConfigFromEnv())
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		log:     log,
		backend: backend,
		sweeper: session.NewSweeper(backend.Sessions(), sessCfg.SweepInterval, log),
		auth:    auth,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.backend, a.auth)
	return wrapHTTP(mux, a.cfg, a.log)
}

// Run serves HTTP and runs the cleanup task until ctx is cancelled or the
// server fails. The backend is closed before Run returns.
func (a *App) Run(ctx context.Context) error {
	defer a.backend.Close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.sweeper.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "backend", a.backend.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", "context_done")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
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

// openBackend decides between Postgres and the in-memory dev backend.
func openBackend(ctx context.Context, cfg Config, log Logger) (storage.Backend, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("db.disabled.memory_backend")
		return storage.NewMemory(), nil
	}

	pool, err := storage.OpenPool(ctx, cfg.DatabaseURL, storage.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("app: open db: %w", err)
	}

	if cfg.DBMigrate {
		if err := storage.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("app: migrate: %w", err)
		}
		log.Info("db.migrated")
	}

	log.Info("db.enabled.postgres_backend")
	return storage.NewPostgres(pool), nil
}
