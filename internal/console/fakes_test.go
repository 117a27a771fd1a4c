package console_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/geocoder89/userdesk/internal/domain/user"
)

var errUnexpectedCall = errors.New("unexpected gateway call")

type fakeGateway struct {
	listFn   func(ctx context.Context, page, limit int) (user.Page, error)
	createFn func(ctx context.Context, req user.CreateRequest) (user.User, error)
	updateFn func(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error)
	deleteFn func(ctx context.Context, id int64) (user.DeleteResult, error)

	calls atomic.Int32
}

func (f *fakeGateway) ListUsers(ctx context.Context, page, limit int) (user.Page, error) {
	f.calls.Add(1)
	if f.listFn == nil {
		return user.Page{}, errUnexpectedCall
	}
	return f.listFn(ctx, page, limit)
}

func (f *fakeGateway) CreateUser(ctx context.Context, req user.CreateRequest) (user.User, error) {
	f.calls.Add(1)
	if f.createFn == nil {
		return user.User{}, errUnexpectedCall
	}
	return f.createFn(ctx, req)
}

func (f *fakeGateway) UpdateUser(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	f.calls.Add(1)
	if f.updateFn == nil {
		return user.User{}, errUnexpectedCall
	}
	return f.updateFn(ctx, id, req)
}

func (f *fakeGateway) DeleteUser(ctx context.Context, id int64) (user.DeleteResult, error) {
	f.calls.Add(1)
	if f.deleteFn == nil {
		return user.DeleteResult{}, errUnexpectedCall
	}
	return f.deleteFn(ctx, id)
}

// seedUsers returns n users with ids 1..n.
func seedUsers(n int) []user.User {
	out := make([]user.User, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, user.User{
			ID:           int64(i),
			Name:         fmt.Sprintf("User %d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			Role:         "User",
			PersonalInfo: fmt.Sprintf("info %d", i),
		})
	}
	return out
}

// pagedList serves all like a server-paginated users API would.
func pagedList(all []user.User) func(context.Context, int, int) (user.Page, error) {
	return func(_ context.Context, page, limit int) (user.Page, error) {
		start := page * limit
		if start > len(all) {
			start = len(all)
		}
		end := start + limit
		if end > len(all) {
			end = len(all)
		}
		return user.Page{Users: append([]user.User{}, all[start:end]...), Total: len(all)}, nil
	}
}

type remoteErr struct {
	status int
	msg    string
}

func (e *remoteErr) Error() string   { return fmt.Sprintf("status %d: %s", e.status, e.msg) }
func (e *remoteErr) StatusCode() int { return e.status }
func (e *remoteErr) Message() string { return e.msg }

type tokenRecorder struct {
	token string
	err   error
}

func (r *tokenRecorder) SetToken(_ context.Context, token string) error {
	if r.err != nil {
		return r.err
	}
	r.token = token
	return nil
}
