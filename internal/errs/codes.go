package errs

import "errors"

// Code is a stable, machine-readable error identifier exposed to clients.
type Code string

// Stable error codes.
const (
	CodeInvalidEmail       Code = "INVALID_EMAIL"
	CodeInvalidPassword    Code = "INVALID_PASSWORD"
	CodeInvalidName        Code = "INVALID_NAME"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUserAlreadyExists  Code = "USER_ALREADY_EXISTS"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// Order matters: the first match wins, so wrapped domain errors are checked
// before the generic infrastructure kind.
var table = []struct {
	err  error
	code Code
	msg  string
}{
	{ErrInvalidEmail, CodeInvalidEmail, "invalid email format"},
	{ErrInvalidPassword, CodeInvalidPassword, "password must be at least 8 characters with 1 uppercase, 1 lowercase, and 1 number"},
	{ErrInvalidName, CodeInvalidName, "name must be at least 2 characters"},
	{ErrInvalidCredentials, CodeInvalidCredentials, "invalid email or password"},
	{ErrUserAlreadyExists, CodeUserAlreadyExists, "user already exists"},
	{ErrUserNotFound, CodeUserNotFound, "user not found"},
	{ErrUnauthorized, CodeUnauthorized, "unauthorized"},
	{ErrRateLimited, CodeRateLimited, "too many attempts, try again later"},
	{ErrUnavailable, CodeUnavailable, "service temporarily unavailable"},
}

// CodeOf returns the stable code for err. Unknown errors map to CodeInternal.
func CodeOf(err error) Code {
	for _, e := range table {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeInternal
}

// MessageOf returns the fixed human message for err. It never contains
// the error text itself, so internal details cannot leak.
func MessageOf(err error) string {
	for _, e := range table {
		if errors.Is(err, e.err) {
			return e.msg
		}
	}
	return "internal error"
}
