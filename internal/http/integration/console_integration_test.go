package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/userdesk/internal/auth"
	"github.com/geocoder89/userdesk/internal/config"
	"github.com/geocoder89/userdesk/internal/console"
	"github.com/geocoder89/userdesk/internal/db"
	"github.com/geocoder89/userdesk/internal/domain/user"
	"github.com/geocoder89/userdesk/internal/gateway"
	apphttp "github.com/geocoder89/userdesk/internal/http"
	"github.com/geocoder89/userdesk/internal/http/handlers"
	"github.com/geocoder89/userdesk/internal/http/middlewares"
	"github.com/geocoder89/userdesk/internal/observability"
	"github.com/geocoder89/userdesk/internal/repo/memory"
	"github.com/geocoder89/userdesk/internal/repo/postgres"
	"github.com/geocoder89/userdesk/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "integration-secret"
)

type usersRepo interface {
	handlers.UsersStore
	handlers.AccountReader
	db.AdminSeeder
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		AdminEmail:          adminEmail,
		AdminPassword:       adminPassword,
		AdminName:           "Test Admin",
		AdminRole:           "admin",
	}
}

// startUsersAPI serves the reference users API over repo with the admin
// account and extra plain users seeded.
func startUsersAPI(t *testing.T, repo usersRepo, extra int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	cfg := testAPIConfig()
	if err := db.EnsureAdminUser(ctx, repo, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	for i := 0; i < extra; i++ {
		if _, err := repo.Create(ctx, user.CreateRequest{Name: "Seed", Email: "seed@example.com", Role: "User", PersonalInfo: "seeded"}, ""); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	jwt := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)

	srv := httptest.NewServer(apphttp.NewAPIRouter(apphttp.APIDeps{
		Env:         "dev",
		ServiceName: "usersapi-test",
		Users:       repo,
		Accounts:    repo,
		Tokens:      jwt,
		Verifier:    jwt,
		AdminRole:   cfg.AdminRole,
	}))
	t.Cleanup(srv.Close)
	return srv
}

type consoleFixture struct {
	srv    *httptest.Server
	client *http.Client
	reg    *prometheus.Registry
}

func startConsole(t *testing.T, apiURL string) *consoleFixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	gw, err := gateway.New(apiURL+"/api", gateway.WithObserver(prom), gateway.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}

	store := session.Observed(memory.NewSessionsRepo(), prom)
	registry := console.NewRegistry(func(id string) *console.Workspace {
		sess := session.New(id, store, time.Hour)
		client := gw.ForSession(sess)
		return &console.Workspace{
			Session: sess,
			Login:   console.NewLoginView(client, sess, nil),
			Board:   console.NewBoard(client, 5, nil),
		}
	}, time.Hour)

	srv := httptest.NewServer(apphttp.NewConsoleRouter(apphttp.ConsoleDeps{
		Env:         "dev",
		ServiceName: "console-test",
		Workspaces:  registry,
		Cookie:      middlewares.SessionCookie{Name: "userdesk_session", TTL: time.Hour},
		Prom:        prom,
		Gatherer:    reg,
		Ready:       []handlers.Pinger{store},
	}))
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &consoleFixture{srv: srv, client: &http.Client{Jar: jar}, reg: reg}
}

func (f *consoleFixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func (f *consoleFixture) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.PostForm(f.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func (f *consoleFixture) state(t *testing.T) console.State {
	t.Helper()
	resp, body := f.get(t, "/dashboard/state")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state status = %d", resp.StatusCode)
	}
	var s console.State
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("decode state: %v body=%s", err, body)
	}
	return s
}

// runConsoleScenario walks the console through login, paging and every edit
// action against a users API holding 12 users.
func runConsoleScenario(t *testing.T, c *consoleFixture) {
	resp, body := c.get(t, "/dashboard")
	if resp.Request.URL.Path != "/" || !strings.Contains(body, "Sign in") {
		t.Fatalf("unauthenticated dashboard should land on login, got %s", resp.Request.URL)
	}

	resp, body = c.post(t, "/login", url.Values{"email": {adminEmail}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "Invalid email or password.") {
		t.Fatalf("bad login: %d %s", resp.StatusCode, body)
	}

	resp, body = c.post(t, "/login", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/dashboard" {
		t.Fatalf("login should land on dashboard: %d %s", resp.StatusCode, resp.Request.URL)
	}
	if !strings.Contains(body, "Showing 1–5 of 12") {
		t.Fatalf("dashboard body: %s", body)
	}

	if _, body = c.get(t, "/dashboard?page=2"); !strings.Contains(body, "Showing 11–12 of 12") {
		t.Fatalf("page 2 body: %s", body)
	}
	if _, body = c.get(t, "/dashboard?page=3"); !strings.Contains(body, "that page does not exist") {
		t.Fatalf("page 3 should be rejected: %s", body)
	}
	if s := c.state(t); s.Cursor != 2 {
		t.Fatalf("cursor = %d", s.Cursor)
	}

	c.post(t, "/dashboard/users", url.Values{})
	s := c.state(t)
	if s.Total != 13 || s.Users[len(s.Users)-1].Email != "newuser@example.com" {
		t.Fatalf("after add: total=%d users=%+v", s.Total, s.Users)
	}
	added := s.Users[len(s.Users)-1]

	c.post(t, "/dashboard/users/"+itoa(added.ID)+"/edit", url.Values{})
	c.post(t, "/dashboard/edit", url.Values{"personalInfo": {"edited through the console"}})
	s = c.state(t)
	if s.Edit != nil {
		t.Fatalf("edit should be closed")
	}
	if u, _ := s.Find(added.ID); u.PersonalInfo != "edited through the console" || u.Name != "New User" {
		t.Fatalf("edited user = %+v", u)
	}

	c.post(t, "/dashboard/users/"+itoa(added.ID)+"/delete", url.Values{})
	if s = c.state(t); s.Total != 12 {
		t.Fatalf("after delete total = %d", s.Total)
	}
	if _, ok := s.Find(added.ID); ok {
		t.Fatalf("deleted user still loaded")
	}

	if _, body = c.get(t, "/dashboard?refresh=1"); !strings.Contains(body, "Showing 11–12 of 12") {
		t.Fatalf("refresh should show the server's page: %s", body)
	}

	resp, _ = c.post(t, "/logout", url.Values{})
	if resp.Request.URL.Path != "/" {
		t.Fatalf("logout landed on %s", resp.Request.URL)
	}
	resp, _ = c.get(t, "/dashboard")
	if resp.Request.URL.Path != "/" {
		t.Fatalf("dashboard after logout landed on %s", resp.Request.URL)
	}

	if _, body = c.get(t, "/metrics"); !strings.Contains(body, `userdesk_upstream_call_duration_seconds`) {
		t.Fatalf("metrics missing upstream histogram")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestConsoleAgainstUsersAPI_Memory(t *testing.T) {
	api := startUsersAPI(t, memory.NewUsersRepo(), 11)
	runConsoleScenario(t, startConsole(t, api.URL))
}

func TestConsoleAgainstUsersAPI_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	if err := db.Migrate(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := db.NewPool(context.Background(), dsn, db.PoolOptions{})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(context.Background(), `TRUNCATE users, sessions RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	api := startUsersAPI(t, postgres.NewUsersRepo(pool), 11)
	runConsoleScenario(t, startConsole(t, api.URL))
}

func TestUsersAPI_RejectsConsoleWithoutToken(t *testing.T) {
	api := startUsersAPI(t, memory.NewUsersRepo(), 0)

	gw, err := gateway.New(api.URL + "/api")
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}

	_, err = gw.ListUsers(context.Background(), 0, 5)
	if !gateway.IsUnauthorized(err) {
		t.Fatalf("err = %v, want 401", err)
	}
}
