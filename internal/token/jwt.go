// Package token signs and verifies access and refresh tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Kind tells access and refresh tokens apart. It travels as the "typ" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the claim set carried by both token kinds.
type Claims struct {
	Subject   string // credential / identity id
	Email     string
	Kind      Kind // empty signs as KindAccess
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs and verifies tokens.
type Issuer interface {
	// Sign returns a signed token valid for ttl and its expiry.
	Sign(c Claims, ttl time.Duration) (string, time.Time, error)
	// Verify checks signature and expiry and returns the claims.
	// It fails with errs.ErrTokenExpired or errs.ErrTokenInvalid.
	Verify(token string) (Claims, error)
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Type  Kind   `json:"typ"`
}

// JWTIssuer issues HS256 JWTs.
type JWTIssuer struct {
	signKey []byte
	now     func() time.Time
}

// NewJWTIssuer constructs an issuer with the given HMAC key.
func NewJWTIssuer(signKey []byte) *JWTIssuer {
	return &JWTIssuer{signKey: signKey, now: time.Now}
}

// Sign creates a signed HS256 JWT. Every token gets a random jti so two tokens
// minted in the same second for the same subject never collide.
func (i *JWTIssuer) Sign(c Claims, ttl time.Duration) (string, time.Time, error) {
	if c.Subject == "" {
		return "", time.Time{}, errors.New("token: empty subject")
	}
	if c.Kind == "" {
		c.Kind = KindAccess
	}
	if c.Kind != KindAccess && c.Kind != KindRefresh {
		return "", time.Time{}, fmt.Errorf("token: unknown kind %q", c.Kind)
	}
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: jti: %w", err)
	}
	now := i.now()
	exp := now.Add(ttl)
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: c.Email,
		Type:  c.Kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, exp, nil
}

// Verify parses tok, checks the HS256 signature and the expiry.
func (i *JWTIssuer) Verify(tok string) (Claims, error) {
	var claims jwtClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return i.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, errs.ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", errs.ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, errs.ErrTokenInvalid
	}
	if claims.Type != KindAccess && claims.Type != KindRefresh {
		return Claims{}, fmt.Errorf("%w: unknown kind %q", errs.ErrTokenInvalid, claims.Type)
	}

	out := Claims{Subject: claims.Subject, Email: claims.Email, Kind: claims.Type}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// VerifyKind verifies tok and rejects it with errs.ErrTokenInvalid unless it is of kind want.
func VerifyKind(iss Issuer, tok string, want Kind) (Claims, error) {
	c, err := iss.Verify(tok)
	if err != nil {
		return Claims{}, err
	}
	if c.Kind != want {
		return Claims{}, fmt.Errorf("%w: %s token where %s expected", errs.ErrTokenInvalid, c.Kind, want)
	}
	return c, nil
}
