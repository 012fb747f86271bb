package model

import "time"

// Credential is the auth-side record of an account. ID is shared with the identity
// record and is assigned by the orchestrator after the identity is created.
type Credential struct {
	ID           string     // PK, equals Identity.ID
	Email        Email      // unique
	PasswordHash string     // argon2id PHC string
	RefreshToken *string    // nil means no active refresh session
	LastLoginAt  *time.Time // nil until the first Login
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time // soft-delete marker, never set by this service
}

// NewCredential builds a fresh record from pre-validated inputs.
func NewCredential(email Email, passwordHash string) *Credential {
	return &Credential{Email: email, PasswordHash: passwordHash}
}

// SetRefreshToken replaces the refresh token; nil clears it.
func (c *Credential) SetRefreshToken(token *string) {
	if token == nil {
		c.RefreshToken = nil
		return
	}
	t := *token
	c.RefreshToken = &t
}

// TouchLastLogin records a successful login at now.
func (c *Credential) TouchLastLogin(now time.Time) {
	c.LastLoginAt = &now
}

// Logout drops the refresh session. Calling it again is a no-op.
func (c *Credential) Logout() {
	c.RefreshToken = nil
}

// HasSession reports whether a refresh token is currently stored.
func (c *Credential) HasSession() bool {
	return c.RefreshToken != nil && *c.RefreshToken != ""
}

// Clone returns a deep copy.
func (c *Credential) Clone() *Credential {
	cp := *c
	if c.RefreshToken != nil {
		t := *c.RefreshToken
		cp.RefreshToken = &t
	}
	if c.LastLoginAt != nil {
		t := *c.LastLoginAt
		cp.LastLoginAt = &t
	}
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}
