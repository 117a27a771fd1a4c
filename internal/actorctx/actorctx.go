package actorctx

import "context"

type ctxKey string

const (
	keySessionID ctxKey = "session_id"
	keyUserID    ctxKey = "user_id"
)

// WithSessionID tags ctx with the browser session the console is acting for.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, keySessionID, sessionID)
}

func SessionIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keySessionID).(string)

	return v, ok && v != ""
}

// WithUserID tags ctx with the authenticated caller of the users API.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}
