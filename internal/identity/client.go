package identity

import (
	"context"
	"errors"

	"github.com/and161185/goph-auth/internal/convert"
	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/and161185/goph-auth/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errEmptyID = errors.New("user service returned an empty id")

// Client is a Resolver backed by the user.v1.UserService gRPC API.
type Client struct {
	users *rpc.UserServiceClient
}

// NewClient constructs a resolver over an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{users: rpc.NewUserServiceClient(cc)}
}

// GetUserByEmail asks the user service for the identity bound to email.
// A NotFound status is a miss; any other failure is an infrastructure error.
func (c *Client) GetUserByEmail(ctx context.Context, email model.Email) (model.Lookup, error) {
	out, err := c.users.GetUserByEmail(ctx, convert.ToProtoEmailRequest(email.String()))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.Lookup{}, nil
		}
		return model.Lookup{}, errs.Unavailable("identity: get user by email", err)
	}
	l, err := convert.FromProtoLookup(out)
	if err != nil {
		return model.Lookup{}, errs.Unavailable("identity: decode lookup", err)
	}
	return l, nil
}

// CreateUser creates the identity record. An InvalidArgument rejection maps to
// ErrInvalidEmail when its ErrorInfo says so and to ErrInvalidName otherwise.
func (c *Client) CreateUser(ctx context.Context, email model.Email, name string) (model.Identity, error) {
	out, err := c.users.CreateUser(ctx, convert.ToProtoCreateUserRequest(email.String(), name))
	if err != nil {
		switch status.Code(err) {
		case codes.AlreadyExists:
			return model.Identity{}, errs.ErrUserAlreadyExists
		case codes.InvalidArgument:
			if invalidArgumentReason(err) == errs.CodeInvalidEmail {
				return model.Identity{}, errs.ErrInvalidEmail
			}
			return model.Identity{}, errs.ErrInvalidName
		default:
			return model.Identity{}, errs.Unavailable("identity: create user", err)
		}
	}
	id, err := convert.FromProtoIdentity(out)
	if err != nil {
		return model.Identity{}, errs.Unavailable("identity: decode user", err)
	}
	if id.ID == "" {
		return model.Identity{}, errs.Unavailable("identity: create user", errEmptyID)
	}
	return id, nil
}
