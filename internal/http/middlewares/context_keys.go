package middlewares

// Keys stored on the gin context. Plain strings so handlers in other packages
// can read them with ctx.Get without importing this one.
const (
	CtxRequestID = "request_id"
	CtxSessionID = "session_id"
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRole      = "auth.role"
)
