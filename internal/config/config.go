package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env string `env:"APP_ENV, default=dev"`

	Console ConsoleConfig
	API     APIConfig
	DB      DBConfig
	Redis   RedisConfig
	Tracing TracingConfig
}

// ConsoleConfig drives cmd/console, the browser-facing admin console.
type ConsoleConfig struct {
	Port            int           `env:"PORT, default=3000"`
	APIBaseURL      string        `env:"API_BASE_URL, default=http://localhost:8080/api"`
	PageSize        int           `env:"PAGE_SIZE, default=5"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT, default=10s"`

	BreakerThreshold int           `env:"UPSTREAM_BREAKER_THRESHOLD, default=5"`
	BreakerCooldown  time.Duration `env:"UPSTREAM_BREAKER_COOLDOWN, default=15s"`

	SessionBackend string        `env:"SESSION_BACKEND, default=memory"`
	SessionTTL     time.Duration `env:"SESSION_TTL, default=12h"`
	SessionCookie  string        `env:"SESSION_COOKIE, default=userdesk_session"`
	SQLitePath     string        `env:"SQLITE_PATH, default=userdesk-sessions.db"`
	BoardIdleTTL   time.Duration `env:"BOARD_IDLE_TTL, default=30m"`
	PurgeInterval  time.Duration `env:"SESSION_PURGE_INTERVAL, default=5m"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT, default=10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW, default=1m"`
}

// APIConfig drives cmd/usersapi, the reference users service.
type APIConfig struct {
	Port                int    `env:"API_PORT, default=8080"`
	Store               string `env:"API_STORE, default=memory"`
	JWTSecret           string `env:"JWT_SECRET, default=dev-secret-change-me"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES, default=60"`

	CORSOrigins     []string      `env:"API_CORS_ORIGINS"`
	LoginRateLimit  int           `env:"API_LOGIN_RATE_LIMIT, default=20"`
	LoginRateWindow time.Duration `env:"API_LOGIN_RATE_WINDOW, default=1m"`

	AdminEmail    string `env:"ADMIN_EMAIL, default=admin@example.com"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME, default=Administrator"`
	AdminRole     string `env:"ADMIN_ROLE, default=admin"`
}

type DBConfig struct {
	URL      string `env:"DB_URL"`
	Host     string `env:"DB_HOST, default=127.0.0.1"`
	Port     string `env:"DB_PORT, default=5432"`
	User     string `env:"DB_USER, default=userdesk"`
	Password string `env:"DB_PASSWORD, default=userdesk"`
	Name     string `env:"DB_NAME, default=userdesk"`
	SSLMode  string `env:"DB_SSLMODE, default=disable"`

	MaxConns    int32         `env:"DB_MAX_CONNS, default=5"`
	MinConns    int32         `env:"DB_MIN_CONNS, default=0"`
	MaxConnIdle time.Duration `env:"DB_MAX_CONN_IDLE, default=5m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type TracingConfig struct {
	// empty disables tracing
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes the configuration from an explicit lookuper so tests can
// feed a map instead of the environment.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	})
	if err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Console.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.Console.PageSize)
	}

	u, err := url.Parse(c.Console.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.Console.APIBaseURL)
	}

	switch c.Console.SessionBackend {
	case "memory", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Console.SessionBackend)
	}

	switch c.API.Store {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown API_STORE %q", c.API.Store)
	}

	if c.Console.PurgeInterval <= 0 {
		return fmt.Errorf("SESSION_PURGE_INTERVAL must be positive, got %s", c.Console.PurgeInterval)
	}

	return nil
}

// IsProd reports whether cookies should be marked Secure.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// DSN returns DB_URL when set, otherwise a URL built from the DB_* parts.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}
