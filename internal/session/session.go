package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKey is the name of the credential slot inside a session.
const TokenKey = "token"

var ErrTokenExpired = errors.New("session: token already expired")

// Session is the credential context of one browser. It is handed to the API
// gateway as its token source and to the login flow as its token writer.
type Session struct {
	id    string
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func New(id string, store Store, ttl time.Duration) *Session {
	return &Session{
		id:    id,
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Session) ID() string {
	return s.id
}

// Fingerprint is a short, non-reversible label for logs.
func (s *Session) Fingerprint() string {
	return Fingerprint(s.id)
}

func Fingerprint(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:6])
}

func (s *Session) key() string {
	return "session:" + s.id + ":" + TokenKey
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, err := s.store.Get(ctx, s.key())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read session token: %w", err)
	}

	if exp, ok := TokenExpiry(tok); ok && !s.now().Before(exp) {
		return "", nil
	}

	return tok, nil
}

// SetToken stores token for at most the session TTL, shortened to the token's
// own expiry when it is a JWT carrying one.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("session: empty token")
	}

	ttl := s.ttl

	if exp, ok := TokenExpiry(token); ok {
		left := exp.Sub(s.now())
		if left <= 0 {
			return ErrTokenExpired
		}
		if ttl <= 0 || left < ttl {
			ttl = left
		}
	}

	if err := s.store.Set(ctx, s.key(), token, ttl); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}

	return nil
}

func (s *Session) ClearToken(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key()); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// Authenticated reports whether a usable token is present.
func (s *Session) Authenticated(ctx context.Context) (bool, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	return tok != "", nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature;
// the console never holds the signing key. Opaque tokens report false.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}
