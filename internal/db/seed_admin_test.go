package db_test

import (
	"context"
	"testing"

	"github.com/geocoder89/userdesk/internal/config"
	"github.com/geocoder89/userdesk/internal/db"
	"github.com/geocoder89/userdesk/internal/repo/memory"
	"github.com/geocoder89/userdesk/internal/security"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()
	cfg := config.APIConfig{
		AdminEmail:    "admin@example.com",
		AdminPassword: "correct-horse",
		AdminName:     "Admin",
		AdminRole:     "admin",
	}

	if err := db.EnsureAdminUser(ctx, repo, cfg); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// second run must not duplicate
	if err := db.EnsureAdminUser(ctx, repo, cfg); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	_, total, _ := repo.List(ctx, 0, 10)
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}

	a, err := repo.GetByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if err := security.CheckPassword(a.PasswordHash, cfg.AdminPassword); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}
	if a.Role != "admin" {
		t.Fatalf("role = %q", a.Role)
	}
}

func TestEnsureAdminUser_NoPasswordIsNoop(t *testing.T) {
	repo := memory.NewUsersRepo()

	if err := db.EnsureAdminUser(context.Background(), repo, config.APIConfig{AdminEmail: "a@b.c"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, total, _ := repo.List(context.Background(), 0, 10)
	if total != 0 {
		t.Fatalf("expected no users, got %d", total)
	}
}
