// Package grpcserver exposes the auth.v1.AuthService gRPC handlers.
package grpcserver

import (
	"context"

	"github.com/and161185/goph-auth/internal/convert"
	"github.com/and161185/goph-auth/internal/rpc"
	"github.com/and161185/goph-auth/internal/service"
	"github.com/and161185/goph-auth/internal/token"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server wires the auth service into gRPC handlers.
type Server struct {
	auth   service.AuthService
	issuer token.Issuer
}

var _ rpc.AuthServiceServer = (*Server)(nil)

// New constructs a gRPC server. issuer verifies bearer access tokens.
func New(auth service.AuthService, issuer token.Issuer) *Server {
	return &Server{auth: auth, issuer: issuer}
}

// Register creates a new account.
func (s *Server) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	cmd, err := convert.FromProtoRegisterRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.auth.Register(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}
	return convert.ToProtoAuthResult(res), nil
}

func remoteAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// Login authenticates and returns a new token pair.
func (s *Server) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	cmd, err := convert.FromProtoLoginRequest(in, remoteAddr(ctx))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.auth.Login(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}
	return convert.ToProtoAuthResult(res), nil
}

// RefreshToken rotates the presented refresh token.
func (s *Server) RefreshToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tok, err := convert.FromProtoRefreshRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	pair, err := s.auth.RefreshToken(ctx, tok)
	if err != nil {
		return nil, toStatus(err)
	}
	return convert.ToProtoTokens(pair), nil
}

// Logout ends the session of the account named by the bearer access token.
func (s *Server) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := s.accountIDFromCtx(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.auth.Logout(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}
