package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/authcore/internal/auth"
	"github.com/geocoder89/authcore/internal/config"
	"github.com/geocoder89/authcore/internal/db"
	"github.com/geocoder89/authcore/internal/dbx"
	httpx "github.com/geocoder89/authcore/internal/http"
	"github.com/geocoder89/authcore/internal/identity"
	"github.com/geocoder89/authcore/internal/observability"
	"github.com/geocoder89/authcore/internal/ratelimit"
	"github.com/geocoder89/authcore/internal/redisclient"
	"github.com/geocoder89/authcore/internal/repo/postgres"
	"github.com/geocoder89/authcore/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("authcore exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTel.ServiceName, cfg.OTel.Endpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	pool, err := db.NewPool(cfg.DBURL(), cfg.DB.MaxConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	sqlDB := db.OpenDB(pool)
	defer sqlDB.Close()

	if cfg.DB.RunMigrations {
		if err := db.Migrate(ctx, sqlDB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	provider := dbx.NewProvider(sqlDB)
	store := postgres.NewStore(log, prom, cfg.Auth.DefaultRole)
	hasher := security.NewHasher(cfg.Auth.BcryptCost)

	if err := db.EnsureRoles(ctx, provider, store, cfg); err != nil {
		return fmt.Errorf("ensure roles: %w", err)
	}
	if err := db.EnsureAdminUser(ctx, provider, store, hasher, cfg, log); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	codec, err := auth.LoadCodec(cfg.JWT.Algorithm, cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}

	issuer := auth.NewIssuer(codec, cfg.AccessTTL(), cfg.RefreshTTL())
	resolver := identity.NewResolver(auth.NewGate(codec), hasher, cfg.Auth.AdminRole)
	svc := identity.NewService(provider, identity.PostgresStores(store), resolver, issuer, hasher,
		identity.WithLogger(log),
		identity.WithMetrics(prom),
	)

	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rc.Close()

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		err := rc.Ping(pctx)
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		limiter = ratelimit.NewRedis(rc.Raw(), cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	var draining atomic.Bool

	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Cfg:      cfg,
		Service:  svc,
		Prom:     prom,
		Gatherer: reg,
		Limiter:  limiter,
		Ping:     provider.Ping,
		Draining: draining.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "alg", codec.Algorithm())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	draining.Store(true)

	sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
