package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

// RejectFunc writes the response for a limited request.
type RejectFunc func(c *gin.Context, retryAfter int)

// RejectJSON answers 429 with the API error envelope.
func RejectJSON(c *gin.Context, _ int) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": gin.H{
			"code":    "rate_limited",
			"message": "Too many requests. Please try again shortly.",
		},
	})
}

// allow counts one hit for key and returns the seconds to wait when over.
func (rl *RateLimiter) allow(key string) (bool, int) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(rl.window)}
		return true, 0
	}

	if b.count >= rl.limit {
		retryAfter := int(b.windowEnd.Sub(now).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	b.count++
	return true, 0
}

// Sweep drops buckets whose window has ended.
func (rl *RateLimiter) Sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}

// Middleware enforces the limit for the key keyFn derives, falling back to
// the client IP. reject nil means RejectJSON.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string, reject RejectFunc) gin.HandlerFunc {
	if reject == nil {
		reject = RejectJSON
	}

	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		ok, retryAfter := rl.allow(key)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			reject(c, retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}

func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
