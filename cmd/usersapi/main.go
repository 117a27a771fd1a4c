package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/userdesk/internal/auth"
	"github.com/geocoder89/userdesk/internal/config"
	"github.com/geocoder89/userdesk/internal/db"
	httpx "github.com/geocoder89/userdesk/internal/http"
	"github.com/geocoder89/userdesk/internal/http/handlers"
	"github.com/geocoder89/userdesk/internal/http/middlewares"
	"github.com/geocoder89/userdesk/internal/observability"
	"github.com/geocoder89/userdesk/internal/repo/memory"
	"github.com/geocoder89/userdesk/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const serviceName = "userdesk-usersapi"

type usersRepo interface {
	handlers.UsersStore
	handlers.AccountReader
	handlers.Pinger
	db.AdminSeeder
}

func main() {
	if err := run(); err != nil {
		slog.Default().Error("users api stopped", "err", err)
		os.Exit(1)
	}
}

func openUsersRepo(ctx context.Context, cfg config.Config) (usersRepo, func(), error) {
	if cfg.API.Store != "postgres" {
		return memory.NewUsersRepo(), func() {}, nil
	}

	dsn := cfg.DB.DSN()
	if err := db.Migrate(dsn); err != nil {
		return nil, func() {}, fmt.Errorf("migrate: %w", err)
	}

	pool, err := db.NewPool(ctx, dsn, db.OptionsFrom(cfg.DB))
	if err != nil {
		return nil, func() {}, err
	}
	return postgres.NewUsersRepo(pool), pool.Close, nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	repo, closeRepo, err := openUsersRepo(ctx, cfg)
	if err != nil {
		return fmt.Errorf("users store: %w", err)
	}
	defer closeRepo()

	if err := db.EnsureAdminUser(ctx, repo, cfg.API); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	jwt := auth.NewManager(cfg.API.JWTSecret, time.Duration(cfg.API.JWTAccessTTLMinutes)*time.Minute)
	limiter := middlewares.NewRateLimiter(cfg.API.LoginRateLimit, cfg.API.LoginRateWindow)

	router := httpx.NewAPIRouter(httpx.APIDeps{
		Env:          cfg.Env,
		ServiceName:  serviceName,
		Users:        repo,
		Accounts:     repo,
		Tokens:       jwt,
		Verifier:     jwt,
		LoginLimiter: limiter,
		CORSOrigins:  cfg.API.CORSOrigins,
		AdminRole:    cfg.API.AdminRole,
		Prom:         prom,
		Gatherer:     reg,
		Ready:        []handlers.Pinger{repo},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("users api starting", "port", cfg.API.Port, "env", cfg.Env, "store", cfg.API.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("users api shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	g.Go(func() error {
		t := time.NewTicker(cfg.API.LoginRateWindow)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				limiter.Sweep()
			}
		}
	})

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}
