// Package gateway is the console's client for the remote users API. Every
// request carries the bearer token of the session the client is bound to.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 1 << 20

// TokenSource yields the bearer token to attach; "" sends the request
// unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Observer wraps each remote call; *observability.Prom satisfies it.
type Observer interface {
	ObserveUpstream(op string, fn func() error) error
}

type noopObserver struct{}

func (noopObserver) ObserveUpstream(_ string, fn func() error) error { return fn() }

type Client struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	observer Observer
	breaker  *Breaker
	validate *validator.Validate
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// New builds an unbound client for baseURL (e.g. http://localhost:8080/api).
// Use ForSession to get a client that authenticates as a browser session.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		observer: noopObserver{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ForSession returns a copy of c that reads its bearer token from tokens. The
// copies share the underlying HTTP client and connection pool.
func (c *Client) ForSession(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	in     any
	out    any

	// allowEmpty accepts a 2xx with no body and leaves out untouched.
	allowEmpty bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	return c.observer.ObserveUpstream(cl.op, func() error {
		if c.breaker == nil {
			return c.roundTrip(ctx, cl)
		}
		if !c.breaker.allow() {
			return &NetworkError{Op: cl.op, Err: ErrCircuitOpen}
		}
		err := c.roundTrip(ctx, cl)
		if err != nil && ctx.Err() != nil {
			c.breaker.release()
			return err
		}
		c.breaker.done(err)
		return err
	})
}

func (c *Client) roundTrip(ctx context.Context, cl call) error {
	op := cl.op
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if cl.in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: op, Status: resp.StatusCode, Body: string(raw)}
	}

	if cl.out == nil {
		return nil
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		if cl.allowEmpty {
			return nil
		}
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: errors.New("empty response body")}
	}

	if err := json.Unmarshal(raw, cl.out); err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("decode response: %w", err)}
	}

	if err := c.validate.Struct(cl.out); err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("invalid response: %w", err)}
	}

	return nil
}
