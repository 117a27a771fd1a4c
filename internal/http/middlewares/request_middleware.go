package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/userdesk/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(CtxRequestID, id)

		ctx.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // 404s have no route
		}

		method := ctx.Request.Method

		ctx.Next()

		status := ctx.Writer.Status()
		reqID, _ := ctx.Get(CtxRequestID)

		logAttrs := []any{
			"method", method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", reqID,
		}

		// handlers downstream may have tagged the request context with an
		// actor; the trace handler picks those up from it
		rctx := ctx.Request.Context()
		if _, ok := actorctx.SessionIDFrom(rctx); !ok {
			if sid, ok := ctx.Get(CtxSessionID); ok {
				if s, ok := sid.(string); ok {
					rctx = actorctx.WithSessionID(rctx, s)
				}
			}
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}

		slog.Default().Log(rctx, level, "http_request", logAttrs...)
	}
}
