package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/geocoder89/userdesk/internal/auth"
	"github.com/geocoder89/userdesk/internal/domain/user"
	httpx "github.com/geocoder89/userdesk/internal/http"
	"github.com/geocoder89/userdesk/internal/repo/memory"
	"github.com/geocoder89/userdesk/internal/security"
	"github.com/gin-gonic/gin"
)

type apiFixture struct {
	t      *testing.T
	router http.Handler
	repo   *memory.UsersRepo
	jwt    *auth.Manager
}

func newAPI(t *testing.T, seed int) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewUsersRepo()
	hash, err := security.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ctx := context.Background()
	if _, err := repo.Create(ctx, user.CreateRequest{Name: "Admin", Email: "admin@example.com", Role: "admin"}, hash); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := repo.Create(ctx, user.CreateRequest{Name: "Reader", Email: "reader@example.com", Role: "User"}, hash); err != nil {
		t.Fatalf("seed reader: %v", err)
	}
	for i := 0; i < seed; i++ {
		_, _ = repo.Create(ctx, user.CreateRequest{Name: "U" + strconv.Itoa(i), Email: "u@example.com", Role: "User"}, "")
	}

	jwt := auth.NewManager("test-secret", time.Hour)

	r := httpx.NewAPIRouter(httpx.APIDeps{
		Env:         "dev",
		ServiceName: "usersapi-test",
		Users:       repo,
		Accounts:    repo,
		Tokens:      jwt,
		Verifier:    jwt,
	})

	return &apiFixture{t: t, router: r, repo: repo, jwt: jwt}
}

func (f *apiFixture) token(id int64, role string) string {
	tok, err := f.jwt.GenerateAccessToken(id, "x@example.com", role)
	if err != nil {
		f.t.Fatalf("token: %v", err)
	}
	return tok
}

func (f *apiFixture) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	f.t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	f := newAPI(t, 0)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "ok", body: `{"email":"admin@example.com","password":"correct horse"}`, status: http.StatusOK},
		{name: "email_case_insensitive", body: `{"email":"ADMIN@example.com","password":"correct horse"}`, status: http.StatusOK},
		{name: "wrong_password", body: `{"email":"admin@example.com","password":"nope"}`, status: http.StatusUnauthorized},
		{name: "unknown_email", body: `{"email":"ghost@example.com","password":"correct horse"}`, status: http.StatusUnauthorized},
		{name: "missing_fields", body: `{}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/login", "", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}

			var resp user.LoginResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			claims, err := f.jwt.VerifyAccessToken(resp.Token)
			if err != nil {
				t.Fatalf("issued token invalid: %v", err)
			}
			if claims.Role != "admin" || resp.User == nil || resp.User.ID != 1 {
				t.Fatalf("claims=%+v user=%+v", claims, resp.User)
			}
		})
	}
}

func TestListUsers_Paginates(t *testing.T) {
	f := newAPI(t, 10) // 12 users in total
	tok := f.token(2, "User")

	w := f.do(http.MethodGet, "/api/users?page=2&limit=5", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var page user.Page
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 12 || len(page.Users) != 2 || page.Users[0].ID != 11 {
		t.Fatalf("page = %+v", page)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	if w := f.do(http.MethodGet, "/api/users?page=2&limit=5", tok, "", "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional get status = %d", w.Code)
	}
}

func TestListUsers_RejectsBadQuery(t *testing.T) {
	f := newAPI(t, 0)
	tok := f.token(1, "admin")

	for _, q := range []string{"page=-1", "limit=0", "limit=1000", "page=x", "page=92233720368547759&limit=100"} {
		if w := f.do(http.MethodGet, "/api/users?"+q, tok, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", q, w.Code)
		}
	}
}

func TestUsers_RequireAuth(t *testing.T) {
	f := newAPI(t, 0)

	for _, tok := range []string{"", "garbage"} {
		if w := f.do(http.MethodGet, "/api/users", tok, ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status = %d", tok, w.Code)
		}
	}
}

func TestUsers_WritesRequireAdmin(t *testing.T) {
	f := newAPI(t, 0)
	tok := f.token(2, "User")

	w := f.do(http.MethodPost, "/api/users", tok, `{"name":"New User","email":"newuser@example.com","role":"User"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUsers_CreateUpdateDelete(t *testing.T) {
	f := newAPI(t, 0)
	tok := f.token(1, "admin")

	w := f.do(http.MethodPost, "/api/users", tok, `{"name":"New User","email":"newuser@example.com","role":"User","personalInfo":"New user info"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	var created user.User
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID != 3 || created.PersonalInfo != "New user info" {
		t.Fatalf("created = %+v", created)
	}

	path := "/api/users/" + strconv.FormatInt(created.ID, 10)

	w = f.do(http.MethodPut, path, tok, `{"personalInfo":"edited"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	var updated user.User
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.PersonalInfo != "edited" || updated.Name != "New User" || updated.Email != "newuser@example.com" {
		t.Fatalf("partial update changed other fields: %+v", updated)
	}

	w = f.do(http.MethodDelete, path, tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	var res user.DeleteResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Deleted || res.ID != created.ID {
		t.Fatalf("delete result = %+v", res)
	}

	if w := f.do(http.MethodDelete, path, tok, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w.Code)
	}
	if w := f.do(http.MethodPut, "/api/users/abc", tok, `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
}

func TestUsers_RequireJSON(t *testing.T) {
	f := newAPI(t, 0)
	tok := f.token(1, "admin")

	w := f.do(http.MethodPost, "/api/users", tok, `name=x`, "Content-Type", "application/x-www-form-urlencoded")
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d", w.Code)
	}
}
