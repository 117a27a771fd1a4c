package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/userdesk/internal/domain/user"
)

type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]user.Account
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		nextID: 1,
		items:  make(map[int64]user.Account),
	}
}

func (r *UsersRepo) Create(_ context.Context, req user.CreateRequest, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := user.User{
		ID:           r.nextID,
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PersonalInfo: req.PersonalInfo,
	}
	r.nextID++
	r.items[u.ID] = user.Account{User: u, PasswordHash: passwordHash}

	return u, nil
}

// List returns users ordered by id, offset/limit applied, plus the total.
func (r *UsersRepo) List(_ context.Context, offset, limit int) ([]user.User, int, error) {
	if offset < 0 || limit < 1 {
		return nil, 0, user.ErrBadWindow
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := len(ids)
	out := make([]user.User, 0, limit)

	if offset >= total {
		return out, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	for _, id := range ids[offset:end] {
		out = append(out, r.items[id].User)
	}

	return out, total, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return a.User, nil
}

// GetByEmail returns the lowest-id account with that email and a password.
func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found user.Account
		ok    bool
	)
	for _, a := range r.items {
		if a.PasswordHash == "" || !strings.EqualFold(a.Email, email) {
			continue
		}
		if !ok || a.ID < found.ID {
			found, ok = a, true
		}
	}

	if !ok {
		return user.Account{}, user.ErrNotFound
	}
	return found, nil
}

func (r *UsersRepo) Update(_ context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	a.User = req.Apply(a.User)
	r.items[id] = a

	return a.User, nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *UsersRepo) Ping(context.Context) error {
	return nil
}
