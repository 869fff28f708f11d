// Package server assembles the gRPC server: OTel stats, bearer-token auth, SessionService and health.
package server

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"session-token-service/internal/server/interceptors"
	sessionhandler "session-token-service/internal/session/handler"
)

// Deps holds the dependencies of the gRPC server.
type Deps struct {
	// Identity resolves bearer tokens into session identities (the session manager).
	Identity interceptors.IdentityResolver
	// Session serves login, refresh and logout. If nil, SessionService is not registered.
	Session sessionhandler.SessionServiceServer
	// Health is the standard health server. If nil, the health service is not registered.
	Health *health.Server
	// PublicMethods overrides the set of methods callable without a session. Nil means DefaultPublicMethods().
	PublicMethods map[string]bool
	Log           *slog.Logger
}

// DefaultPublicMethods returns the methods that do not require a session: the health service,
// Login (no session yet) and Logout (succeeds with stale tokens).
func DefaultPublicMethods() map[string]bool {
	return map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
		healthpb.Health_Watch_FullMethodName: true,
		sessionhandler.LoginFullMethod:       true,
		sessionhandler.LogoutFullMethod:      true,
	}
}

// NewGRPCServer returns a gRPC server with OTel instrumentation and the auth interceptors installed,
// and registers the services set in deps.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	public := deps.PublicMethods
	if public == nil {
		public = DefaultPublicMethods()
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors.AuthUnary(deps.Identity, public, deps.Log)),
		grpc.ChainStreamInterceptor(interceptors.AuthStream(deps.Identity, public, deps.Log)),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers the gRPC services with the given registrar.
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	if deps.Session != nil {
		sessionhandler.RegisterSessionServiceServer(s, deps.Session)
	}
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
}
