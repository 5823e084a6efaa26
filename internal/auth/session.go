package auth

import "context"

// Session identifies the authenticated caller for the duration of a request.
type Session struct {
	UserID int64
	Role   Role
}

type contextKey string

const sessionKey contextKey = "session"

// WithSession stores the session in the request context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the caller's session if present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
