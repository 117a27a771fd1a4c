package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/userdesk/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionsRepo is a session.Store over the sessions table.
type SessionsRepo struct {
	pool *pgxpool.Pool
}

func NewSessionsRepo(pool *pgxpool.Pool) *SessionsRepo {
	return &SessionsRepo{pool: pool}
}

func (r *SessionsRepo) Get(ctx context.Context, key string) (string, error) {
	var v string

	err := r.pool.QueryRow(ctx, `
		SELECT value FROM sessions
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`, key).Scan(&v)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", session.ErrNotFound
		}
		return "", err
	}

	return v, nil
}

func (r *SessionsRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var exp *time.Time
	if ttl > 0 {
		t := time.Now().UTC().Add(ttl)
		exp = &t
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, key, value, exp)

	return err
}

func (r *SessionsRepo) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE key = $1`, key)
	return err
}

func (r *SessionsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *SessionsRepo) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM sessions
		WHERE expires_at IS NOT NULL AND expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
