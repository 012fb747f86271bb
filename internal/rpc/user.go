package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// UserServiceName is the fully qualified gRPC name of the identity service.
const UserServiceName = "user.v1.UserService"

// Full method names of UserService.
var (
	UserGetUserByEmail = fullName(UserServiceName, "GetUserByEmail")
	UserCreateUser     = fullName(UserServiceName, "CreateUser")
)

// UserServiceServer is the server API of user.v1.UserService.
type UserServiceServer interface {
	GetUserByEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// UserServiceDesc describes user.v1.UserService for grpc.Server.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetUserByEmail", Handler: handler(UserGetUserByEmail, UserServiceServer.GetUserByEmail)},
		{MethodName: "CreateUser", Handler: handler(UserCreateUser, UserServiceServer.CreateUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "user/v1/user.proto",
}

// RegisterUserServiceServer registers srv on s.
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

// UserServiceClient calls user.v1.UserService.
type UserServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUserServiceClient constructs a client over cc.
func NewUserServiceClient(cc grpc.ClientConnInterface) *UserServiceClient {
	return &UserServiceClient{cc: cc}
}

// GetUserByEmail calls UserService.GetUserByEmail.
func (c *UserServiceClient) GetUserByEmail(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, UserGetUserByEmail, in, opts...)
}

// CreateUser calls UserService.CreateUser.
func (c *UserServiceClient) CreateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, UserCreateUser, in, opts...)
}
