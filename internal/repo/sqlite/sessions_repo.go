// Package sqlite keeps console sessions in a single local database file, the
// durable counterpart of the in-memory store for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/userdesk/internal/session"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at);
`

type SessionsRepo struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*SessionsRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// one writer; sqlite serialises writes anyway
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SessionsRepo{db: db, now: time.Now}, nil
}

func (r *SessionsRepo) Close() error {
	return r.db.Close()
}

func (r *SessionsRepo) Get(ctx context.Context, key string) (string, error) {
	var v string

	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM sessions
		WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, r.now().UnixMilli(),
	).Scan(&v)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", session.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *SessionsRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = r.now().Add(ttl).UnixMilli()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, exp,
	)
	return err
}

func (r *SessionsRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key)
	return err
}

func (r *SessionsRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SessionsRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <> 0 AND expires_at <= ?`,
		r.now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
