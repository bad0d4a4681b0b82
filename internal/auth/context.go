package auth

import "context"

// Session is the authenticated principal attached to a request after the
// cookie token resolved to a live identity.
type Session struct {
	IdentityID string
	Username   string
	Admin      bool
}

type sessionContextKey struct{}

// ContextWithSession attaches the authenticated session to the context.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, &s)
}

// SessionFromContext extracts the authenticated session from the context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	v, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok || v == nil {
		return Session{}, false
	}
	return *v, true
}
