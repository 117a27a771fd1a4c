package observability

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// statusCoder is satisfied by upstream errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// ObserveUpstream times one users API call and classifies its failure.
func (p *Prom) ObserveUpstream(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.UpstreamErrors.WithLabelValues(op, classifyUpstreamErr(err)).Inc()
	}
	p.UpstreamDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

// ObserveStore times one store operation and classifies its failure.
func (p *Prom) ObserveStore(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.StoreErrors.WithLabelValues(op, classifyStoreErr(err)).Inc()
	}
	p.StoreDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyUpstreamErr(err error) string {
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		return "http_" + strconv.Itoa(sc.StatusCode())
	}

	if strings.Contains(err.Error(), "circuit breaker open") {
		return "circuit_open"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}

	return "unknown"
}

func classifyStoreErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "refused"):
		return "connection"
	default:
		return "unknown"
	}
}
