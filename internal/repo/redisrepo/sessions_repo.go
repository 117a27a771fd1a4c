package redisrepo

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/userdesk/internal/session"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "userdesk:"

// SessionsRepo is a session.Store backed by Redis keys with native TTLs.
type SessionsRepo struct {
	rdb *redis.Client
}

func NewSessionsRepo(rdb *redis.Client) *SessionsRepo {
	return &SessionsRepo{rdb: rdb}
}

func (r *SessionsRepo) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *SessionsRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	// ttl 0 keeps the key until deleted, matching session.Store
	return r.rdb.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (r *SessionsRepo) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, keyPrefix+key).Err()
}

func (r *SessionsRepo) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
