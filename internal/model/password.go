package model

import "github.com/and161185/goph-auth/internal/errs"

const passwordMinLen = 8

// Password is a plaintext password that passed the strength rules.
// It only lives long enough to be hashed and must never be persisted or logged.
type Password struct{ v string }

// NewPassword checks length, character classes and the allowed alphabet.
func NewPassword(raw string) (Password, error) {
	if len(raw) < passwordMinLen {
		return Password{}, errs.ErrInvalidPassword
	}
	var upper, lower, digit bool
	for _, r := range raw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case isPasswordSymbol(r):
		default:
			return Password{}, errs.ErrInvalidPassword
		}
	}
	if !upper || !lower || !digit {
		return Password{}, errs.ErrInvalidPassword
	}
	return Password{v: raw}, nil
}

func isPasswordSymbol(r rune) bool {
	switch r {
	case '@', '$', '!', '%', '*', '?', '&':
		return true
	}
	return false
}

// Plain returns the raw value for the hashing step.
func (p Password) Plain() string { return p.v }

// String redacts the value so accidental logging is harmless.
func (p Password) String() string { return "[REDACTED]" }

// GoString redacts the value for %#v.
func (p Password) GoString() string { return "model.Password{[REDACTED]}" }
