package identity

import (
	"context"
	"errors"

	"github.com/and161185/goph-auth/internal/convert"
	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/and161185/goph-auth/internal/rpc"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrorDomain is set on the ErrorInfo of every InvalidArgument rejection, so
// clients can tell a bad email from a bad name.
const ErrorDomain = "user.v1"

// Server exposes a Resolver as user.v1.UserService.
type Server struct {
	r Resolver
}

var _ rpc.UserServiceServer = (*Server)(nil)

// NewServer wraps r.
func NewServer(r Resolver) *Server { return &Server{r: r} }

// GetUserByEmail handles user.v1.UserService/GetUserByEmail.
func (s *Server) GetUserByEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := convert.FromProtoEmailRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	email, err := model.NewEmail(raw)
	if err != nil {
		return nil, invalidArgument(errs.CodeInvalidEmail, "invalid email")
	}
	l, err := s.r.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, toStatus(err)
	}
	return convert.ToProtoLookup(l), nil
}

// CreateUser handles user.v1.UserService/CreateUser.
func (s *Server) CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, name, err := convert.FromProtoCreateUserRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	email, err := model.NewEmail(raw)
	if err != nil {
		return nil, invalidArgument(errs.CodeInvalidEmail, "invalid email")
	}
	id, err := s.r.CreateUser(ctx, email, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return convert.ToProtoIdentity(id), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, errs.ErrUserAlreadyExists):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, errs.ErrInvalidName):
		return invalidArgument(errs.CodeInvalidName, "invalid name")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	default:
		return status.Error(codes.Unavailable, "user store unavailable")
	}
}

func invalidArgument(reason errs.Code, msg string) error {
	st := status.New(codes.InvalidArgument, msg)
	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: string(reason), Domain: ErrorDomain})
	if err != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// invalidArgumentReason returns the ErrorInfo reason of an InvalidArgument status.
func invalidArgumentReason(err error) errs.Code {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return errs.Code(info.GetReason())
		}
	}
	return ""
}
