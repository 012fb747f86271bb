package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthServiceName is the fully qualified gRPC service name.
const AuthServiceName = "auth.v1.AuthService"

// Full method names of AuthService.
var (
	AuthRegister     = fullName(AuthServiceName, "Register")
	AuthLogin        = fullName(AuthServiceName, "Login")
	AuthRefreshToken = fullName(AuthServiceName, "RefreshToken")
	AuthLogout       = fullName(AuthServiceName, "Logout")
)

// AuthServiceServer is the server API of auth.v1.AuthService.
type AuthServiceServer interface {
	Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Logout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// AuthServiceDesc describes auth.v1.AuthService for grpc.Server.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: handler(AuthRegister, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: handler(AuthLogin, AuthServiceServer.Login)},
		{MethodName: "RefreshToken", Handler: handler(AuthRefreshToken, AuthServiceServer.RefreshToken)},
		{MethodName: "Logout", Handler: handler(AuthLogout, AuthServiceServer.Logout)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/auth.proto",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient calls auth.v1.AuthService.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient constructs a client over cc.
func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

// Register calls AuthService.Register.
func (c *AuthServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AuthRegister, in, opts...)
}

// Login calls AuthService.Login.
func (c *AuthServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AuthLogin, in, opts...)
}

// RefreshToken calls AuthService.RefreshToken.
func (c *AuthServiceClient) RefreshToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AuthRefreshToken, in, opts...)
}

// Logout calls AuthService.Logout. The caller attaches the bearer token.
func (c *AuthServiceClient) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AuthLogout, in, opts...)
}
