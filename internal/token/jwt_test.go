package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_SignVerify(t *testing.T) {
	t.Parallel()

	iss := NewJWTIssuer([]byte("secret"))
	tok, exp, err := iss.Sign(Claims{Subject: "id-1", Email: "a@b.com"}, time.Minute)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	c, err := iss.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "id-1", c.Subject)
	require.Equal(t, "a@b.com", c.Email)
	require.Equal(t, KindAccess, c.Kind, "empty kind signs as access")
	require.Equal(t, exp.Unix(), c.ExpiresAt.Unix())
	require.False(t, c.IssuedAt.IsZero())
}

func TestJWTIssuer_TokensAreUnique(t *testing.T) {
	t.Parallel()

	iss := NewJWTIssuer([]byte("secret"))
	c := Claims{Subject: "id-1", Email: "a@b.com"}
	a, _, err := iss.Sign(c, time.Hour)
	require.NoError(t, err)
	b, _, err := iss.Sign(c, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestJWTIssuer_Expired(t *testing.T) {
	t.Parallel()

	iss := NewJWTIssuer([]byte("secret"))
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := iss.Sign(Claims{Subject: "id-1"}, time.Hour)
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Verify(tok)
	require.ErrorIs(t, err, errs.ErrTokenExpired)
}

func TestJWTIssuer_Invalid(t *testing.T) {
	t.Parallel()

	iss := NewJWTIssuer([]byte("secret"))
	other := NewJWTIssuer([]byte("other"))

	foreign, _, err := other.Sign(Claims{Subject: "id-1"}, time.Hour)
	require.NoError(t, err)
	_, err = iss.Verify(foreign)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	_, err = iss.Verify("not.a.jwt")
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	good, _, err := iss.Sign(Claims{Subject: "id-1"}, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(good, ".")
	_, err = iss.Verify(parts[0] + "." + parts[1] + ".AAAA")
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	// alg=none and a different HMAC size must be rejected
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "id-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Verify(none)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "id-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Verify(hs512)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "id-1"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Verify(noExp)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Verify(noSub)
	require.True(t, errors.Is(err, errs.ErrTokenInvalid))
}

func TestJWTIssuer_SignRejectsEmptySubject(t *testing.T) {
	t.Parallel()

	_, _, err := NewJWTIssuer([]byte("k")).Sign(Claims{}, time.Minute)
	require.Error(t, err)
}

func TestVerifyKind_SeparatesAccessAndRefresh(t *testing.T) {
	t.Parallel()

	iss := NewJWTIssuer([]byte("secret"))
	refresh, _, err := iss.Sign(Claims{Subject: "id-1", Kind: KindRefresh}, time.Hour)
	require.NoError(t, err)
	access, _, err := iss.Sign(Claims{Subject: "id-1", Kind: KindAccess}, time.Hour)
	require.NoError(t, err)

	c, err := VerifyKind(iss, refresh, KindRefresh)
	require.NoError(t, err)
	require.Equal(t, KindRefresh, c.Kind)
	_, err = VerifyKind(iss, refresh, KindAccess)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	_, err = VerifyKind(iss, access, KindAccess)
	require.NoError(t, err)
	_, err = VerifyKind(iss, access, KindRefresh)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	_, err = VerifyKind(iss, "garbage", KindAccess)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestJWTIssuer_KindClaimRequired(t *testing.T) {
	t.Parallel()

	iss := NewJWTIssuer([]byte("secret"))
	_, _, err := iss.Sign(Claims{Subject: "id-1", Kind: "session"}, time.Hour)
	require.Error(t, err)

	untyped, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "id-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Verify(untyped)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}
