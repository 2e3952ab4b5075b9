package middleware

import (
	"context"

	identityservice "webstarter/backend/internal/identity/service"
)

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	sessionIDKey = contextKey{"session_id"}
	sessionKey   = contextKey{"session"}
	tokenKey     = contextKey{"token"}
	clientIPKey  = contextKey{"client_ip"}
)

// WithIdentity returns a context with user_id and session_id set.
// Handlers read these via GetUserID and GetSessionID.
func WithIdentity(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set; otherwise "", false.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}

// WithSession stores the validated session, its token, and the identity keys.
func WithSession(ctx context.Context, view *identityservice.SessionView, token string) context.Context {
	ctx = WithIdentity(ctx, view.User.ID, view.Session.ID)
	ctx = context.WithValue(ctx, sessionKey, view)
	return context.WithValue(ctx, tokenKey, token)
}

// SessionFrom returns the session loaded by Session, if any.
func SessionFrom(ctx context.Context) (*identityservice.SessionView, bool) {
	v, ok := ctx.Value(sessionKey).(*identityservice.SessionView)
	return v, ok && v != nil
}

// Token returns the raw session token of the authenticated request.
func Token(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey).(string)
	return v, ok
}

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP stored by ClientIPContext, or "".
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}
