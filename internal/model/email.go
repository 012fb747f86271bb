// Package model defines domain entities and value objects used by services and repositories.
package model

import (
	"regexp"
	"strings"

	"github.com/and161185/goph-auth/internal/errs"
)

const (
	emailMinLen = 5
	emailMaxLen = 254
)

// Applied after lower-casing, so only lower-case letters need to be listed.
var emailRe = regexp.MustCompile(
	"^[a-z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*$",
)

// Email is a validated, trimmed, lower-cased address. The zero value is not valid.
type Email struct{ v string }

// NewEmail normalizes raw and validates it.
func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || len(v) < emailMinLen || len(v) > emailMaxLen || !emailRe.MatchString(v) {
		return Email{}, errs.ErrInvalidEmail
	}
	return Email{v: v}, nil
}

// IsValidEmail reports whether raw would be accepted by NewEmail.
func IsValidEmail(raw string) bool {
	_, err := NewEmail(raw)
	return err == nil
}

// String returns the normalized address.
func (e Email) String() string { return e.v }

// LocalPart returns the part before '@'.
func (e Email) LocalPart() string {
	local, _, _ := strings.Cut(e.v, "@")
	return local
}

// Domain returns the part after '@'.
func (e Email) Domain() string {
	_, domain, _ := strings.Cut(e.v, "@")
	return domain
}

// Equal compares normalized values.
func (e Email) Equal(o Email) bool { return e.v == o.v }

// IsZero reports whether e was never set.
func (e Email) IsZero() bool { return e.v == "" }
