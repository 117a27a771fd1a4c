package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/userdesk/internal/actorctx"
	"github.com/geocoder89/userdesk/internal/session"
	"github.com/gin-gonic/gin"
)

type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// AttachSession makes sure every request has a browser session id, issuing a
// fresh cookie when the request has none or an unrecognisable one.
func AttachSession(cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookie.Name)
		if err != nil || !session.ValidID(id) {
			id = session.NewID()
			setSessionCookie(c, cookie, id)
		}

		c.Set(CtxSessionID, id)
		c.Request = c.Request.WithContext(actorctx.WithSessionID(c.Request.Context(), session.Fingerprint(id)))

		c.Next()
	}
}

// RotateSession replaces the session id for the rest of the request and in
// the browser. Used on login and logout so an id is never carried across an
// authentication boundary.
func RotateSession(c *gin.Context, cookie SessionCookie) string {
	id := session.NewID()
	setSessionCookie(c, cookie, id)
	c.Set(CtxSessionID, id)
	c.Request = c.Request.WithContext(actorctx.WithSessionID(c.Request.Context(), session.Fingerprint(id)))
	return id
}

func setSessionCookie(c *gin.Context, cookie SessionCookie, id string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cookie.Name, id, int(cookie.TTL.Seconds()), "/", "", cookie.Secure, true)
}

func SessionIDFromContext(c *gin.Context) string {
	id, _ := stringFromContext(c, CtxSessionID)
	return id
}

// TokenChecker reports whether a session holds a usable token.
type TokenChecker interface {
	Authenticated(ctx context.Context) (bool, error)
}

// RequireToken redirects to loginPath unless the request's session holds a
// token. It must run after AttachSession.
func RequireToken(lookup func(sessionID string) TokenChecker, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := lookup(SessionIDFromContext(c)).Authenticated(c.Request.Context())
		if err != nil {
			slog.Default().ErrorContext(c.Request.Context(), "session.lookup_failed", "err", err)
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		if !ok {
			status := http.StatusFound
			if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
				status = http.StatusSeeOther
			}
			c.Redirect(status, loginPath)
			c.Abort()
			return
		}

		c.Next()
	}
}
