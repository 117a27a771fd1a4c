// Package session holds the console's per-browser credential state: a bearer
// token kept in a pluggable key/value Store under the browser's session id.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session: key not found")

// Store is the key/value persistence behind sessions. A zero ttl means the
// value does not expire on its own. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Purger is implemented by stores that keep expired rows around until swept.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Observer times store operations; *observability.Prom satisfies it.
type Observer interface {
	ObserveStore(op string, fn func() error) error
}

type observedStore struct {
	next Store
	obs  Observer
}

// Observed wraps next so every operation is reported to obs. A miss on Get is
// not counted as a failure.
func Observed(next Store, obs Observer) Store {
	if obs == nil {
		return next
	}
	return &observedStore{next: next, obs: obs}
}

func (s *observedStore) Get(ctx context.Context, key string) (string, error) {
	var (
		val  string
		miss bool
	)

	err := s.obs.ObserveStore("session_get", func() error {
		v, err := s.next.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			miss = true
			return nil
		}
		val = v
		return err
	})
	if err != nil {
		return "", err
	}
	if miss {
		return "", ErrNotFound
	}

	return val, nil
}

func (s *observedStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.obs.ObserveStore("session_set", func() error {
		return s.next.Set(ctx, key, value, ttl)
	})
}

func (s *observedStore) Delete(ctx context.Context, key string) error {
	return s.obs.ObserveStore("session_delete", func() error {
		return s.next.Delete(ctx, key)
	})
}

func (s *observedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *observedStore) PurgeExpired(ctx context.Context) (int64, error) {
	p, ok := s.next.(Purger)
	if !ok {
		return 0, nil
	}

	var n int64
	err := s.obs.ObserveStore("session_purge", func() error {
		var err error
		n, err = p.PurgeExpired(ctx)
		return err
	})
	return n, err
}
