package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/geocoder89/userdesk/internal/domain/user"
)

// Login exchanges credentials for a bearer token. Credentials are passed
// through as typed; the users API decides what is acceptable.
func (c *Client) Login(ctx context.Context, email, password string) (user.LoginResponse, error) {
	var out user.LoginResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/login",
		in:     user.LoginRequest{Email: email, Password: password},
		out:    &out,
	})
	return out, err
}

// ListUsers fetches the zero-based page of limit users plus the total count.
func (c *Client) ListUsers(ctx context.Context, page, limit int) (user.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out user.Page
	err := c.do(ctx, call{
		op:     "list_users",
		method: http.MethodGet,
		path:   "/users",
		query:  q,
		out:    &out,
	})
	if out.Users == nil {
		out.Users = []user.User{}
	}
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, req user.CreateRequest) (user.User, error) {
	var out user.User
	err := c.do(ctx, call{
		op:     "create_user",
		method: http.MethodPost,
		path:   "/users",
		in:     req,
		out:    &out,
	})
	return out, err
}

// UpdateUser sends a partial update; only non-nil fields go over the wire.
func (c *Client) UpdateUser(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	var out user.User
	err := c.do(ctx, call{
		op:     "update_user",
		method: http.MethodPut,
		path:   "/users/" + strconv.FormatInt(id, 10),
		in:     req,
		out:    &out,
	})
	return out, err
}

// DeleteUser treats an empty 2xx as an acknowledgement for id.
func (c *Client) DeleteUser(ctx context.Context, id int64) (user.DeleteResult, error) {
	out := user.DeleteResult{Deleted: true, ID: id}
	err := c.do(ctx, call{
		op:         "delete_user",
		method:     http.MethodDelete,
		path:       "/users/" + strconv.FormatInt(id, 10),
		out:        &out,
		allowEmpty: true,
	})
	if err != nil {
		return user.DeleteResult{}, err
	}
	return out, nil
}
