package interceptors

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	identitydomain "session-token-service/internal/identity/domain"
)

const bearerPrefix = "bearer "

// IdentityResolver resolves a bearer token into the identity of its session.
// (nil, nil) means the token carries no live session. *service.Manager implements it.
type IdentityResolver interface {
	GetIdentity(ctx context.Context, token string) (*identitydomain.LoginUser, error)
}

// AuthUnary returns a unary server interceptor that resolves the Bearer token from gRPC metadata
// into a LoginUser and puts it in context. publicMethods is the set of full method names that do
// not require a session (e.g. the health service); they run anonymously when no identity resolves.
func AuthUnary(resolver IdentityResolver, publicMethods map[string]bool, log *slog.Logger) grpc.UnaryServerInterceptor {
	a := authenticator{resolver: resolver, public: publicMethods, log: orDefault(log)}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := a.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// AuthStream is the streaming counterpart of AuthUnary.
func AuthStream(resolver IdentityResolver, publicMethods map[string]bool, log *slog.Logger) grpc.StreamServerInterceptor {
	a := authenticator{resolver: resolver, public: publicMethods, log: orDefault(log)}
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := a.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &identityStream{ServerStream: ss, ctx: ctx})
	}
}

type authenticator struct {
	resolver IdentityResolver
	public   map[string]bool
	log      *slog.Logger
}

func (a authenticator) authenticate(ctx context.Context, method string) (context.Context, error) {
	public := a.public[method]
	token := BearerToken(ctx)
	if token == "" {
		if public {
			return ctx, nil
		}
		return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}

	user, err := a.resolver.GetIdentity(ctx, token)
	if err != nil {
		a.log.ErrorContext(ctx, "auth: resolve session", "method", method, "error", err)
		if public {
			return ctx, nil
		}
		return nil, status.Error(codes.Unavailable, "session lookup failed")
	}
	if user == nil {
		if public {
			return ctx, nil
		}
		return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
	return WithLoginUser(ctx, user), nil
}

// identityStream overrides Context so stream handlers see the resolved identity.
type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context { return s.ctx }

// BearerToken returns the Bearer token from incoming ctx metadata, or "" if missing or malformed.
func BearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func orDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
