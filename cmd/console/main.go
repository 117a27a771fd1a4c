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

	"github.com/geocoder89/userdesk/internal/config"
	"github.com/geocoder89/userdesk/internal/console"
	"github.com/geocoder89/userdesk/internal/gateway"
	httpx "github.com/geocoder89/userdesk/internal/http"
	"github.com/geocoder89/userdesk/internal/http/handlers"
	"github.com/geocoder89/userdesk/internal/http/middlewares"
	"github.com/geocoder89/userdesk/internal/observability"
	"github.com/geocoder89/userdesk/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const serviceName = "userdesk-console"

func main() {
	if err := run(); err != nil {
		slog.Default().Error("console stopped", "err", err)
		os.Exit(1)
	}
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	backend, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer closeStore()
	store := session.Observed(backend, prom)

	gw, err := gateway.New(cfg.Console.APIBaseURL,
		gateway.WithTimeout(cfg.Console.UpstreamTimeout),
		gateway.WithObserver(prom),
		gateway.WithBreaker(gateway.NewBreaker(gateway.BreakerConfig{
			FailureThreshold: cfg.Console.BreakerThreshold,
			Cooldown:         cfg.Console.BreakerCooldown,
		})),
	)
	if err != nil {
		return err
	}

	registry := console.NewRegistry(func(id string) *console.Workspace {
		sess := session.New(id, store, cfg.Console.SessionTTL)
		client := gw.ForSession(sess)
		return &console.Workspace{
			Session: sess,
			Login:   console.NewLoginView(client, sess, log),
			Board:   console.NewBoard(client, cfg.Console.PageSize, log),
		}
	}, cfg.Console.BoardIdleTTL)

	limiter := middlewares.NewRateLimiter(cfg.Console.LoginRateLimit, cfg.Console.LoginRateWindow)

	router := httpx.NewConsoleRouter(httpx.ConsoleDeps{
		Env:         cfg.Env,
		ServiceName: serviceName,
		Workspaces:  registry,
		Cookie: middlewares.SessionCookie{
			Name:   cfg.Console.SessionCookie,
			Secure: cfg.IsProd(),
			TTL:    cfg.Console.SessionTTL,
		},
		LoginLimiter: limiter,
		Prom:         prom,
		Gatherer:     reg,
		Ready:        []handlers.Pinger{store},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Console.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Console.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("console starting",
			"port", cfg.Console.Port,
			"env", cfg.Env,
			"api_base_url", cfg.Console.APIBaseURL,
			"session_backend", cfg.Console.SessionBackend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("console shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	g.Go(func() error {
		registry.Run(gctx, time.Minute)
		return nil
	})

	g.Go(func() error {
		purgeLoop(gctx, store, cfg.Console.PurgeInterval)
		return nil
	})

	g.Go(func() error {
		t := time.NewTicker(cfg.Console.LoginRateWindow)
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
