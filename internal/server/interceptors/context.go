package interceptors

import (
	"context"

	identitydomain "session-token-service/internal/identity/domain"
)

type contextKey struct{ name string }

var loginUserKey = contextKey{"login_user"}

// WithLoginUser returns a context carrying the authenticated identity.
// Handlers read it via GetLoginUser, GetUserID, GetSessionID.
func WithLoginUser(ctx context.Context, user *identitydomain.LoginUser) context.Context {
	return context.WithValue(ctx, loginUserKey, user)
}

// GetLoginUser returns the identity from context and true if set; otherwise nil, false.
func GetLoginUser(ctx context.Context) (*identitydomain.LoginUser, bool) {
	v, ok := ctx.Value(loginUserKey).(*identitydomain.LoginUser)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// GetUserID returns the user id of the identity in context.
func GetUserID(ctx context.Context) (string, bool) {
	u, ok := GetLoginUser(ctx)
	if !ok {
		return "", false
	}
	return u.ID, true
}

// GetSessionID returns the session id of the identity in context.
func GetSessionID(ctx context.Context) (string, bool) {
	u, ok := GetLoginUser(ctx)
	if !ok {
		return "", false
	}
	return u.SessionID, true
}
