package db

import (
	"context"
	"errors"

	"github.com/geocoder89/userdesk/internal/config"
	"github.com/geocoder89/userdesk/internal/domain/user"
	"github.com/geocoder89/userdesk/internal/security"
)

// AdminSeeder is the slice of the users repository the seed needs.
type AdminSeeder interface {
	GetByEmail(ctx context.Context, email string) (user.Account, error)
	Create(ctx context.Context, req user.CreateRequest, passwordHash string) (user.User, error)
}

// EnsureAdminUser creates the configured admin account unless one with that
// email can already log in. Without ADMIN_PASSWORD it does nothing.
func EnsureAdminUser(ctx context.Context, repo AdminSeeder, cfg config.APIConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := repo.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, user.CreateRequest{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		Role:         cfg.AdminRole,
		PersonalInfo: "Seeded administrator",
	}, hash)

	return err
}
