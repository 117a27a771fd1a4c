package gateway

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type BreakerConfig struct {
	FailureThreshold int           // consecutive upstream failures before opening
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // trial calls allowed while half-open
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// Breaker fails calls fast while the users service looks down. Only transport
// failures and 5xx responses count against it; a 4xx means the service
// answered.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu                  sync.Mutex
	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &Breaker{cfg: cfg, now: time.Now}
}

// WithBreaker shares b across the client and every ForSession copy.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// Open reports whether calls are currently being rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state == breakerOpen && b.now().Sub(b.openedAt) < b.cfg.Cooldown
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false
		}
		b.state = breakerHalfOpen
		b.halfOpenInFlight = 1
		return true
	case breakerHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxCalls {
			return false
		}
		b.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (b *Breaker) done(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}

	if !countsAsOutage(err) {
		b.consecutiveFailures = 0
		b.state = breakerClosed
		return
	}

	b.consecutiveFailures++

	if b.state == breakerHalfOpen || b.consecutiveFailures >= b.cfg.FailureThreshold {
		b.state = breakerOpen
		b.openedAt = b.now()
	}
}

// release ends a call whose outcome says nothing about the service, such as
// one abandoned by its caller.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}
}

func countsAsOutage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}

	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status >= 500
	}

	// local failures (token lookup, encoding) say nothing about the service
	return false
}
