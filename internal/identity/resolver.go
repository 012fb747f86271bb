// Package identity talks to the user service that owns profile identities.
package identity

import (
	"context"

	"github.com/and161185/goph-auth/internal/model"
)

// Resolver looks up and creates identities in the user service.
//
// GetUserByEmail reports a miss through Lookup.Found, never through an error:
// an error always means the answer is unknown.
type Resolver interface {
	GetUserByEmail(ctx context.Context, email model.Email) (model.Lookup, error)
	// CreateUser fails with errs.ErrUserAlreadyExists or errs.ErrInvalidName.
	CreateUser(ctx context.Context, email model.Email, name string) (model.Identity, error)
}
