package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"

	identitydomain "session-token-service/internal/identity/domain"
)

// Full method names of SessionService.
const (
	ServiceName       = "session.v1.SessionService"
	LoginFullMethod   = "/" + ServiceName + "/Login"
	RefreshFullMethod = "/" + ServiceName + "/Refresh"
	LogoutFullMethod  = "/" + ServiceName + "/Logout"
	WhoAmIFullMethod  = "/" + ServiceName + "/WhoAmI"
)

type LoginRequest struct {
	Username string `json:"username"`
}

type LoginResponse struct {
	AccessToken string                    `json:"accessToken"`
	LoginTime   time.Time                 `json:"loginTime"`
	ExpireTime  time.Time                 `json:"expireTime"`
	User        *identitydomain.LoginUser `json:"user"`
}

type RefreshRequest struct{}

type RefreshResponse struct {
	ExpireTime time.Time `json:"expireTime"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	// LoggedOut is false when the token referenced no live session.
	LoggedOut bool `json:"loggedOut"`
}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	User *identitydomain.LoginUser `json:"user"`
}

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	WhoAmI(context.Context, *WhoAmIRequest) (*WhoAmIResponse, error)
}

// RegisterSessionServiceServer registers srv with s.
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(LoginFullMethod, SessionServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(RefreshFullMethod, SessionServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(LogoutFullMethod, SessionServiceServer.Logout)},
		{MethodName: "WhoAmI", Handler: unaryHandler(WhoAmIFullMethod, SessionServiceServer.WhoAmI)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "session/v1/session.json",
}

// unaryHandler adapts a typed method into a grpc.MethodDesc handler, running interceptors when present.
func unaryHandler[Req, Resp any](fullMethod string, call func(SessionServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SessionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(SessionServiceServer), ctx, req.(*Req))
		})
	}
}

// SessionServiceClient is the client API for SessionService. Calls use the JSON codec.
type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionServiceClient returns a client for SessionService over cc.
func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.invoke(ctx, LoginFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshResponse, error) {
	out := new(RefreshResponse)
	if err := c.invoke(ctx, RefreshFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	out := new(LogoutResponse)
	if err := c.invoke(ctx, LogoutFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*WhoAmIResponse, error) {
	out := new(WhoAmIResponse)
	if err := c.invoke(ctx, WhoAmIFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
