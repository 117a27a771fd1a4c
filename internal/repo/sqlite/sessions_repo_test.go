package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/geocoder89/userdesk/internal/session"
)

func openTemp(t *testing.T) *SessionsRepo {
	t.Helper()

	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSessionsRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	if _, err := repo.Get(ctx, "k"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set(ctx, "k", "first", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "k", "second", 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, err := repo.Get(ctx, "k")
	if err != nil || v != "second" {
		t.Fatalf("get = %q, %v", v, err)
	}

	if err := repo.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "k"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionsRepo_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	_ = repo.Set(ctx, "short", "a", time.Minute)
	_ = repo.Set(ctx, "forever", "b", 0)

	now = now.Add(5 * time.Minute)

	if _, err := repo.Get(ctx, "short"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expired key still readable: %v", err)
	}

	n, err := repo.PurgeExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("purge = %d, %v; want 1", n, err)
	}

	if v, err := repo.Get(ctx, "forever"); err != nil || v != "b" {
		t.Fatalf("forever = %q, %v", v, err)
	}
}

func TestSessionsRepo_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = first.Set(ctx, "k", "kept", time.Hour)
	_ = first.Close()

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	if v, err := second.Get(ctx, "k"); err != nil || v != "kept" {
		t.Fatalf("after reopen = %q, %v", v, err)
	}
}
