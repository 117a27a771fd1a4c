package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/userdesk/internal/session"
)

// SessionsRepo is a process-local session.Store. Entries expire lazily on
// read and in bulk on PurgeExpired.
type SessionsRepo struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val string
	exp time.Time // zero means no expiry
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		m:   make(map[string]entry),
		now: time.Now,
	}
}

// WithClock swaps the time source; used by tests to step past TTLs.
func (r *SessionsRepo) WithClock(now func() time.Time) *SessionsRepo {
	r.now = now
	return r
}

func (r *SessionsRepo) Get(_ context.Context, key string) (string, error) {
	now := r.now()
	r.mu.RLock()
	e, ok := r.m[key]
	r.mu.RUnlock()
	if !ok {
		return "", session.ErrNotFound
	}

	if e.expired(now) {
		r.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, ok := r.m[key]; ok && cur.expired(now) {
			delete(r.m, key)
		}
		r.mu.Unlock()
		return "", session.ErrNotFound
	}

	return e.val, nil
}

func (r *SessionsRepo) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{val: value}
	if ttl > 0 {
		e.exp = r.now().Add(ttl)
	}

	r.mu.Lock()
	r.m[key] = e
	r.mu.Unlock()
	return nil
}

func (r *SessionsRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.m, key)
	r.mu.Unlock()
	return nil
}

func (r *SessionsRepo) Ping(context.Context) error {
	return nil
}

func (r *SessionsRepo) PurgeExpired(context.Context) (int64, error) {
	now := r.now()
	var n int64

	r.mu.Lock()
	for k, e := range r.m {
		if e.expired(now) {
			delete(r.m, k)
			n++
		}
	}
	r.mu.Unlock()

	return n, nil
}

func (r *SessionsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && !now.Before(e.exp)
}
