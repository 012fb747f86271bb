package identity

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/rpc"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startUserService(t *testing.T, srv rpc.UserServiceServer) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	rpc.RegisterUserServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close(); gs.Stop(); _ = lis.Close() })
	return cc
}

func TestClient_AgainstServer(t *testing.T) {
	t.Parallel()

	cl := NewClient(startUserService(t, NewServer(NewMemory())))
	ctx := context.Background()

	l, err := cl.GetUserByEmail(ctx, email(t, "bob@example.com"))
	require.NoError(t, err)
	require.False(t, l.Found)

	id, err := cl.CreateUser(ctx, email(t, "bob@example.com"), "bob")
	require.NoError(t, err)
	require.NotEmpty(t, id.ID)

	l, err = cl.GetUserByEmail(ctx, email(t, "bob@example.com"))
	require.NoError(t, err)
	require.True(t, l.Found)
	require.Equal(t, id, l.Identity)

	_, err = cl.CreateUser(ctx, email(t, "bob@example.com"), "bob")
	require.ErrorIs(t, err, errs.ErrUserAlreadyExists)

	_, err = cl.CreateUser(ctx, email(t, "carol@example.com"), "")
	require.ErrorIs(t, err, errs.ErrInvalidName)
}

type failingUsers struct {
	err error
	out *structpb.Struct
}

func (f failingUsers) GetUserByEmail(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return f.out, f.err
}

func (f failingUsers) CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return f.out, f.err
}

func TestClient_TransportFailureIsNotAMiss(t *testing.T) {
	t.Parallel()

	cl := NewClient(startUserService(t, failingUsers{err: status.Error(codes.Unavailable, "down")}))
	ctx := context.Background()

	l, err := cl.GetUserByEmail(ctx, email(t, "a@example.com"))
	require.ErrorIs(t, err, errs.ErrUnavailable)
	require.False(t, l.Found)

	_, err = cl.CreateUser(ctx, email(t, "a@example.com"), "a")
	require.ErrorIs(t, err, errs.ErrUnavailable)
	require.NotErrorIs(t, err, errs.ErrUserAlreadyExists)
}

func TestClient_NotFoundStatusIsAMiss(t *testing.T) {
	t.Parallel()

	cl := NewClient(startUserService(t, failingUsers{err: status.Error(codes.NotFound, "no such user")}))
	l, err := cl.GetUserByEmail(context.Background(), email(t, "a@example.com"))
	require.NoError(t, err)
	require.False(t, l.Found)
}

func TestClient_EmptyIDFromCreate(t *testing.T) {
	t.Parallel()

	out := &structpb.Struct{Fields: map[string]*structpb.Value{"email": structpb.NewStringValue("a@example.com")}}
	cl := NewClient(startUserService(t, failingUsers{out: out}))
	_, err := cl.CreateUser(context.Background(), email(t, "a@example.com"), "a")
	require.ErrorIs(t, err, errs.ErrUnavailable)
}

func TestClient_DeadlineIsInfra(t *testing.T) {
	t.Parallel()

	cl := NewClient(startUserService(t, NewServer(NewMemory())))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cl.GetUserByEmail(ctx, email(t, "a@example.com"))
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrUnavailable))
}

func TestServer_RejectsBadEmail(t *testing.T) {
	t.Parallel()

	s := NewServer(NewMemory())
	in, err := structpb.NewStruct(map[string]any{"email": "nope"})
	require.NoError(t, err)
	_, err = s.GetUserByEmail(context.Background(), in)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	in, err = structpb.NewStruct(map[string]any{"email": 1.0, "name": "x"})
	require.NoError(t, err)
	_, err = s.CreateUser(context.Background(), in)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestClient_InvalidArgumentReason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cl := NewClient(startUserService(t, failingUsers{err: invalidArgument(errs.CodeInvalidEmail, "invalid email")}))
	_, err := cl.CreateUser(ctx, email(t, "a@example.com"), "ann")
	require.ErrorIs(t, err, errs.ErrInvalidEmail)
	require.NotErrorIs(t, err, errs.ErrInvalidName)

	cl = NewClient(startUserService(t, failingUsers{err: invalidArgument(errs.CodeInvalidName, "invalid name")}))
	_, err = cl.CreateUser(ctx, email(t, "a@example.com"), "a")
	require.ErrorIs(t, err, errs.ErrInvalidName)

	// servers that send no ErrorInfo keep the name mapping
	cl = NewClient(startUserService(t, failingUsers{err: status.Error(codes.InvalidArgument, "bad")}))
	_, err = cl.CreateUser(ctx, email(t, "a@example.com"), "a")
	require.ErrorIs(t, err, errs.ErrInvalidName)
}

func TestServer_InvalidArgumentCarriesReason(t *testing.T) {
	t.Parallel()

	s := NewServer(NewMemory())
	in, err := structpb.NewStruct(map[string]any{"email": "nope", "name": "Ann"})
	require.NoError(t, err)
	_, err = s.CreateUser(context.Background(), in)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Equal(t, errs.CodeInvalidEmail, invalidArgumentReason(err))

	in, err = structpb.NewStruct(map[string]any{"email": "ann@example.com", "name": " "})
	require.NoError(t, err)
	_, err = s.CreateUser(context.Background(), in)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Equal(t, errs.CodeInvalidName, invalidArgumentReason(err))
}
