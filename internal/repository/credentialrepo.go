// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/goph-auth/internal/model"
)

// CredentialRepository is the durable keyed store of credential records.
// Lookups of absent records fail with errs.ErrNotFound; any other error is a
// driver failure and is returned as is.
type CredentialRepository interface {
	// FindByEmail loads the live record with the given normalized email.
	FindByEmail(ctx context.Context, email model.Email) (*model.Credential, error)
	// FindByID loads the live record with the given id.
	FindByID(ctx context.Context, id string) (*model.Credential, error)
	// Save inserts or updates c by id and returns the stored copy.
	// An email already held by another record fails with errs.ErrAlreadyExists.
	Save(ctx context.Context, c *model.Credential) (*model.Credential, error)
	// UpdateRefreshToken overwrites the refresh token; nil clears it.
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
	// SwapRefreshToken replaces the refresh token only while it still equals oldToken.
	// It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, id, oldToken, newToken string) (bool, error)
	// UpdateLastLogin sets the last successful login time.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
