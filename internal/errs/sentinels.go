// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Input validation. Surfaced as client errors, never retried.
var (
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidPassword indicates a password that does not meet the strength rules.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidName indicates a display name that is too short.
	ErrInvalidName = errors.New("invalid name")
)

// Domain outcomes of the credential commands.
var (
	// ErrInvalidCredentials covers unknown email, wrong password and identity miss alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserAlreadyExists indicates the email already has an identity or credential record.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserNotFound indicates an account id that no longer resolves.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)

// Token verification.
var (
	// ErrTokenInvalid indicates a bad signature, algorithm or claim set.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Storage.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnavailable marks infrastructure failures: timeouts, transport or storage errors.
	ErrUnavailable = errors.New("unavailable")
)
