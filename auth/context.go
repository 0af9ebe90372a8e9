package auth

import "context"

// contextKey is a private type for context keys so other packages cannot
// collide with ours.
type contextKey string

const sessionContextKey contextKey = "auth_session"

// NewContext returns a child context carrying the session identity.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// FromContext extracts the session identity stored by NewContext. The
// second return value is false when the request is unauthenticated.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	return sess, ok
}
