package shared

import "context"

type contextKey string

const sessionContextKey contextKey = "gestionpro.session"

// ContextWithSession stores the session in the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext retrieves the session from context, nil when absent.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// TenantFromContext returns the tenant id of the authenticated session.
// Empty string means unauthenticated.
func TenantFromContext(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	return sess.TenantID
}

// UserFromContext returns the user id of the authenticated session.
func UserFromContext(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	return sess.UserID
}
