// Package memory contains in-process implementations of repository interfaces
// used by tests and by the server's dev mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
)

// CredentialRepo is a map-backed CredentialRepository. Records are copied on
// the way in and out so callers never share memory with the store.
type CredentialRepo struct {
	mu      sync.RWMutex
	byID    map[string]*model.Credential
	byEmail map[string]string
	now     func() time.Time
}

// NewCredentialRepo constructs an empty store.
func NewCredentialRepo() *CredentialRepo {
	return &CredentialRepo{
		byID:    make(map[string]*model.Credential),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// FindByEmail returns a copy of the record with the given email.
func (r *CredentialRepo) FindByEmail(ctx context.Context, email model.Email) (*model.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email.String()]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

// FindByID returns a copy of the record with the given id.
func (r *CredentialRepo) FindByID(ctx context.Context, id string) (*model.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return c.Clone(), nil
}

// Save upserts by id and keeps the email index unique.
func (r *CredentialRepo) Save(ctx context.Context, c *model.Credential) (*model.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	email := c.Email.String()
	if owner, ok := r.byEmail[email]; ok && owner != c.ID {
		return nil, errs.ErrAlreadyExists
	}

	now := r.now()
	stored := c.Clone()
	if prev, ok := r.byID[c.ID]; ok {
		stored.CreatedAt = prev.CreatedAt
		if prevEmail := prev.Email.String(); prevEmail != email {
			delete(r.byEmail, prevEmail)
		}
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.byID[c.ID] = stored
	r.byEmail[email] = c.ID
	return stored.Clone(), nil
}

// UpdateRefreshToken overwrites the token of an existing record.
func (r *CredentialRepo) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.SetRefreshToken(token)
		c.UpdatedAt = r.now()
	}
	return nil
}

// SwapRefreshToken replaces the token only while it equals oldToken.
func (r *CredentialRepo) SwapRefreshToken(ctx context.Context, id, oldToken, newToken string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.RefreshToken == nil || *c.RefreshToken != oldToken {
		return false, nil
	}
	c.SetRefreshToken(&newToken)
	c.UpdatedAt = r.now()
	return true, nil
}

// UpdateLastLogin sets the last login time of an existing record.
func (r *CredentialRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.TouchLastLogin(at)
		c.UpdatedAt = r.now()
	}
	return nil
}
