package grpcserver

import (
	"github.com/and161185/goph-auth/internal/errs"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is set on every errdetails.ErrorInfo returned by the server.
const ErrorDomain = "github.com/and161185/goph-auth"

// grpcCode maps a stable error code to a gRPC status code.
func grpcCode(c errs.Code) codes.Code {
	switch c {
	case errs.CodeInvalidEmail, errs.CodeInvalidPassword, errs.CodeInvalidName:
		return codes.InvalidArgument
	case errs.CodeInvalidCredentials, errs.CodeUnauthorized:
		return codes.Unauthenticated
	case errs.CodeUserAlreadyExists:
		return codes.AlreadyExists
	case errs.CodeUserNotFound:
		return codes.NotFound
	case errs.CodeRateLimited:
		return codes.ResourceExhausted
	case errs.CodeUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a status carrying the fixed message
// and an ErrorInfo with the stable code. The cause never reaches the client.
func toStatus(err error) error {
	code := errs.CodeOf(err)
	gc := grpcCode(code)
	st := status.New(gc, errs.MessageOf(err))
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(code),
		Domain: ErrorDomain,
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// ReasonOf extracts the stable code from a status returned by this server.
// It returns an empty code when err carries no ErrorInfo.
func ReasonOf(err error) errs.Code {
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
