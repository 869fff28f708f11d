package interceptors

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	identitydomain "session-token-service/internal/identity/domain"
)

// mapResolver resolves tokens from a fixed map.
type mapResolver struct {
	users map[string]*identitydomain.LoginUser
	err   error
	calls int
}

func (r *mapResolver) GetIdentity(ctx context.Context, token string) (*identitydomain.LoginUser, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.users[token], nil
}

func bearerCtx(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

// captureHandler records the identity seen by the handler.
type captureHandler struct {
	user *identitydomain.LoginUser
	ran  bool
}

func (h *captureHandler) handle(ctx context.Context, req interface{}) (interface{}, error) {
	h.ran = true
	h.user, _ = GetLoginUser(ctx)
	return "success", nil
}

const (
	publicMethod    = "/test.Service/PublicMethod"
	protectedMethod = "/test.Service/ProtectedMethod"
)

func newResolver() *mapResolver {
	return &mapResolver{users: map[string]*identitydomain.LoginUser{
		"good-token": {ID: "user-1", SessionID: "sess-1"},
	}}
}

func TestAuthUnary(t *testing.T) {
	public := map[string]bool{publicMethod: true}
	testCases := []struct {
		name     string
		ctx      context.Context
		method   string
		wantCode codes.Code
		wantUser string
	}{
		{"public without token", context.Background(), publicMethod, codes.OK, ""},
		{"public with unknown token", bearerCtx("stale"), publicMethod, codes.OK, ""},
		{"public with valid token", bearerCtx("good-token"), publicMethod, codes.OK, "user-1"},
		{"protected without token", context.Background(), protectedMethod, codes.Unauthenticated, ""},
		{"protected with unknown token", bearerCtx("stale"), protectedMethod, codes.Unauthenticated, ""},
		{"protected with valid token", bearerCtx("good-token"), protectedMethod, codes.OK, "user-1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			interceptor := AuthUnary(newResolver(), public, nil)
			h := &captureHandler{}
			resp, err := interceptor(tc.ctx, "request", &grpc.UnaryServerInfo{FullMethod: tc.method}, h.handle)
			if code := status.Code(err); code != tc.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", code, tc.wantCode, err)
			}
			if tc.wantCode != codes.OK {
				if h.ran {
					t.Error("handler must not run when rejected")
				}
				return
			}
			if resp != "success" {
				t.Errorf("response = %v, want success", resp)
			}
			gotUser := ""
			if h.user != nil {
				gotUser = h.user.ID
			}
			if gotUser != tc.wantUser {
				t.Errorf("identity = %q, want %q", gotUser, tc.wantUser)
			}
		})
	}
}

func TestAuthUnary_ResolverError(t *testing.T) {
	resolver := &mapResolver{err: errors.New("store down")}
	interceptor := AuthUnary(resolver, map[string]bool{publicMethod: true}, nil)

	h := &captureHandler{}
	_, err := interceptor(bearerCtx("good-token"), "request", &grpc.UnaryServerInfo{FullMethod: protectedMethod}, h.handle)
	if status.Code(err) != codes.Unavailable {
		t.Errorf("protected code = %v, want Unavailable", status.Code(err))
	}

	h = &captureHandler{}
	if _, err := interceptor(bearerCtx("good-token"), "request", &grpc.UnaryServerInfo{FullMethod: publicMethod}, h.handle); err != nil {
		t.Errorf("public method should run anonymously: %v", err)
	}
	if !h.ran || h.user != nil {
		t.Errorf("public handler ran=%v user=%v", h.ran, h.user)
	}
}

func TestAuthUnary_NoTokenSkipsResolver(t *testing.T) {
	resolver := newResolver()
	interceptor := AuthUnary(resolver, map[string]bool{publicMethod: true}, nil)
	h := &captureHandler{}
	if _, err := interceptor(context.Background(), "request", &grpc.UnaryServerInfo{FullMethod: publicMethod}, h.handle); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver calls = %d, want 0", resolver.calls)
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func TestAuthStream(t *testing.T) {
	interceptor := AuthStream(newResolver(), map[string]bool{}, nil)

	var seen *identitydomain.LoginUser
	handler := func(srv interface{}, ss grpc.ServerStream) error {
		seen, _ = GetLoginUser(ss.Context())
		return nil
	}
	info := &grpc.StreamServerInfo{FullMethod: protectedMethod}

	if err := interceptor(nil, &fakeServerStream{ctx: bearerCtx("good-token")}, info, handler); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if seen == nil || seen.ID != "user-1" {
		t.Errorf("stream identity = %v", seen)
	}

	err := interceptor(nil, &fakeServerStream{ctx: context.Background()}, info, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestExtractBearer(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc.def", "abc.def"},
		{"case insensitive", "bEaReR abc", "abc"},
		{"whitespace", "  Bearer   abc  ", "abc"},
		{"wrong scheme", "Basic abc", ""},
		{"too short", "Bear", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", tc.header))
			if got := BearerToken(ctx); got != tc.want {
				t.Errorf("BearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
	if got := BearerToken(context.Background()); got != "" {
		t.Errorf("no metadata: got %q", got)
	}
	if got := BearerToken(metadata.NewIncomingContext(context.Background(), metadata.MD{})); got != "" {
		t.Errorf("no header: got %q", got)
	}
}
