// Package handler serves the session lifecycle over gRPC (SessionService).
package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	identitydomain "session-token-service/internal/identity/domain"
	identityservice "session-token-service/internal/identity/service"
	"session-token-service/internal/server/interceptors"
	"session-token-service/internal/session/service"
)

// LoginKeyHeader carries the shared key that callers of Login must present when one is configured.
const LoginKeyHeader = "x-login-key"

// Authenticator opens a session for a username. *service.Authenticator implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, username string) (*service.Token, *identitydomain.LoginUser, error)
}

// Sessions is the part of the session manager used after login. *service.Manager implements it.
type Sessions interface {
	Refresh(ctx context.Context, user *identitydomain.LoginUser) error
	Logout(ctx context.Context, token string) (bool, error)
}

// Server implements SessionService.
// Login and Logout are public methods; Refresh and WhoAmI need the identity put in context by the auth interceptor.
type Server struct {
	auth     Authenticator
	sessions Sessions
	loginKey string
	log      *slog.Logger
}

// NewServer returns a SessionService server. If auth is nil, Login returns Unimplemented (no user directory).
// loginKey empty means Login accepts any caller. log nil means slog.Default().
func NewServer(auth Authenticator, sessions Sessions, loginKey string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{auth: auth, sessions: sessions, loginKey: loginKey, log: log}
}

// Login starts a session for req.Username. Credentials must have been verified by the caller.
func (s *Server) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Login not implemented")
	}
	if !s.loginKeyValid(ctx) {
		return nil, status.Error(codes.PermissionDenied, "login key required")
	}
	if req.Username == "" {
		return nil, status.Error(codes.InvalidArgument, "username required")
	}
	tok, user, err := s.auth.Authenticate(ctx, req.Username)
	if err != nil {
		return nil, s.statusError(ctx, "login", err)
	}
	return &LoginResponse{
		AccessToken: tok.AccessToken,
		LoginTime:   tok.LoginTime,
		ExpireTime:  tok.ExpireTime,
		User:        user,
	}, nil
}

// Refresh extends the caller's session.
func (s *Server) Refresh(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	user, ok := interceptors.GetLoginUser(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "session required")
	}
	if err := s.sessions.Refresh(ctx, user); err != nil {
		return nil, s.statusError(ctx, "refresh", err)
	}
	return &RefreshResponse{ExpireTime: user.ExpireTime}, nil
}

// Logout ends the session referenced by the bearer token. Unknown or expired tokens are not an error.
func (s *Server) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	ok, err := s.sessions.Logout(ctx, interceptors.BearerToken(ctx))
	if err != nil {
		return nil, s.statusError(ctx, "logout", err)
	}
	return &LogoutResponse{LoggedOut: ok}, nil
}

// WhoAmI returns the caller's session identity.
func (s *Server) WhoAmI(ctx context.Context, req *WhoAmIRequest) (*WhoAmIResponse, error) {
	user, ok := interceptors.GetLoginUser(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "session required")
	}
	return &WhoAmIResponse{User: user}, nil
}

func (s *Server) loginKeyValid(ctx context.Context) bool {
	if s.loginKey == "" {
		return true
	}
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get(LoginKeyHeader)
	if len(vals) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(vals[0]), []byte(s.loginKey)) == 1
}

// statusError maps lifecycle and directory errors to gRPC status codes.
func (s *Server) statusError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, identityservice.ErrUserNotFound):
		return status.Error(codes.Unauthenticated, "unknown user")
	case errors.Is(err, identityservice.ErrUserLocked):
		return status.Error(codes.PermissionDenied, "user is locked")
	case errors.Is(err, identityservice.ErrUserDisabled):
		return status.Error(codes.PermissionDenied, "user is disabled")
	case errors.Is(err, service.ErrSessionNotFound):
		return status.Error(codes.Unauthenticated, "session expired")
	case errors.Is(err, service.ErrStoreUnavailable):
		s.log.ErrorContext(ctx, "session store", "op", op, "error", err)
		return status.Error(codes.Unavailable, "session store unavailable")
	default:
		s.log.ErrorContext(ctx, "session "+op, "error", err)
		return status.Error(codes.Internal, "failed to "+op)
	}
}
