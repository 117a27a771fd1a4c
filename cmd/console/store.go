package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/userdesk/internal/config"
	"github.com/geocoder89/userdesk/internal/db"
	"github.com/geocoder89/userdesk/internal/redisclient"
	"github.com/geocoder89/userdesk/internal/repo/memory"
	"github.com/geocoder89/userdesk/internal/repo/postgres"
	"github.com/geocoder89/userdesk/internal/repo/redisrepo"
	"github.com/geocoder89/userdesk/internal/repo/sqlite"
	"github.com/geocoder89/userdesk/internal/session"
)

// openSessionStore connects the backend SESSION_BACKEND names. The returned
// close func is always safe to call.
func openSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	noop := func() {}

	switch cfg.Console.SessionBackend {
	case "memory":
		return memory.NewSessionsRepo(), noop, nil

	case "redis":
		rdb, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, noop, err
		}
		return redisrepo.NewSessionsRepo(rdb), func() { _ = rdb.Close() }, nil

	case "postgres":
		dsn := cfg.DB.DSN()
		if err := db.Migrate(dsn); err != nil {
			return nil, noop, fmt.Errorf("migrate: %w", err)
		}
		pool, err := db.NewPool(ctx, dsn, db.OptionsFrom(cfg.DB))
		if err != nil {
			return nil, noop, err
		}
		return postgres.NewSessionsRepo(pool), pool.Close, nil

	case "sqlite":
		repo, err := sqlite.Open(ctx, cfg.Console.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown session backend %q", cfg.Console.SessionBackend)
}

// purgeLoop removes expired tokens from stores that do not expire them on
// their own.
func purgeLoop(ctx context.Context, store session.Store, every time.Duration) {
	p, ok := store.(session.Purger)
	if !ok {
		return
	}

	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				slog.Default().WarnContext(ctx, "session.purge_failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Default().DebugContext(ctx, "session.purged", "count", n)
			}
		}
	}
}
