package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/userdesk/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateRequest, passwordHash string) (user.User, error) {
	var hash *string
	if passwordHash != "" {
		hash = &passwordHash
	}

	u := user.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PersonalInfo: req.PersonalInfo,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role, personal_info, password_hash)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		u.Name, u.Email, u.Role, u.PersonalInfo, hash,
	).Scan(&u.ID)

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, offset, limit int) ([]user.User, int, error) {
	if offset < 0 || limit < 1 {
		return nil, 0, user.ErrBadWindow
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, role, personal_info, COUNT(*) OVER() AS total
		FROM users
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]user.User, 0, limit)
	total := -1

	for rows.Next() {
		var u user.User

		err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PersonalInfo, &total)

		if err != nil {
			return nil, 0, err
		}

		output = append(output, u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// past the last page the window is empty and carries no count
	if total < 0 {
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, role, personal_info FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PersonalInfo)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.Account, error) {
	var a user.Account

	err := r.pool.QueryRow(
		ctx,
		`SELECT id, name, email, role, personal_info, password_hash
         FROM users
         WHERE lower(email) = lower($1) AND password_hash IS NOT NULL
         ORDER BY id ASC
         LIMIT 1`,
		email,
	).Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Role,
		&a.PersonalInfo,
		&a.PasswordHash,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.Account{}, user.ErrNotFound
		}

		return user.Account{}, err
	}
	return a, nil
}

// Update applies only the provided fields; COALESCE keeps the rest.
func (r *UsersRepo) Update(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	var u user.User

	err := r.pool.QueryRow(ctx,
		`UPDATE users SET
			name          = COALESCE($2, name),
			email         = COALESCE($3, email),
			role          = COALESCE($4, role),
			personal_info = COALESCE($5, personal_info),
			updated_at    = NOW()
		WHERE id = $1
		RETURNING id, name, email, role, personal_info`,
		id, req.Name, req.Email, req.Role, req.PersonalInfo,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PersonalInfo)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
