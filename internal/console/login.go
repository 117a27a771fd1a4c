package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/geocoder89/userdesk/internal/domain/user"
)

// DashboardPath is where a successful login lands.
const DashboardPath = "/dashboard"

type Authenticator interface {
	Login(ctx context.Context, email, password string) (user.LoginResponse, error)
}

type TokenWriter interface {
	SetToken(ctx context.Context, token string) error
}

type LoginResult struct {
	Redirect string
	User     *user.User
}

// LoginView is the authentication form of one browser session. Credentials
// are passed to the users API as typed.
type LoginView struct {
	mu      sync.Mutex
	loading bool
	email   string
	errMsg  string

	auth   Authenticator
	tokens TokenWriter
	log    *slog.Logger
}

func NewLoginView(auth Authenticator, tokens TokenWriter, log *slog.Logger) *LoginView {
	if log == nil {
		log = slog.Default()
	}
	return &LoginView{auth: auth, tokens: tokens, log: log}
}

// Submit logs in and stores the token. Loading is set for the duration of
// the call and always cleared when it returns.
func (v *LoginView) Submit(ctx context.Context, email, password string) (LoginResult, error) {
	v.mu.Lock()
	v.loading = true
	v.email = email
	v.errMsg = ""
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.loading = false
		v.mu.Unlock()
	}()

	resp, err := v.auth.Login(ctx, email, password)
	if err == nil {
		err = v.tokens.SetToken(ctx, resp.Token)
	}

	if err != nil {
		v.log.WarnContext(ctx, "login.failed", slog.String("err", err.Error()))

		v.mu.Lock()
		v.errMsg = loginMessage(err)
		v.mu.Unlock()
		return LoginResult{}, err
	}

	return LoginResult{Redirect: DashboardPath, User: resp.User}, nil
}

func (v *LoginView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// LastError is the message of the most recent failed Submit, "" after a
// success.
func (v *LoginView) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

func (v *LoginView) Email() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.email
}

func loginMessage(err error) string {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return "Invalid email or password."
		case http.StatusTooManyRequests:
			return "Too many attempts. Please wait a moment."
		}
	}

	var remote interface{ Message() string }
	if errors.As(err, &remote) {
		return "Login failed: " + remote.Message()
	}

	return "Login failed. Please try again."
}
