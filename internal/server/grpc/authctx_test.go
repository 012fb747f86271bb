package grpcserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/token"
	"google.golang.org/grpc/metadata"
)

func TestWithAccountID_And_AccountIDFromCtx(t *testing.T) {
	t.Parallel()

	if id, ok := AccountIDFromCtx(context.Background()); ok || id != "" {
		t.Fatalf("expected no account id in empty ctx")
	}

	ctx := WithAccountID(context.Background(), "acc-1")
	got, ok := AccountIDFromCtx(ctx)
	if !ok || got != "acc-1" {
		t.Fatalf("got %q %v", got, ok)
	}

	if _, ok := AccountIDFromCtx(WithAccountID(context.Background(), "")); ok {
		t.Fatalf("empty id must be a miss")
	}

	type otherKey string
	bad := context.WithValue(context.Background(), otherKey("auth.accountID"), "acc-1")
	if _, ok := AccountIDFromCtx(bad); ok {
		t.Fatalf("foreign key must be a miss")
	}
}

func Test_bearerTokenFromMD_OkAndErrors(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi"))
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("ok: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "bearer xyz"))
	if got, err := bearerTokenFromMD(ctx); err != nil || got != "xyz" {
		t.Fatalf("scheme is case-insensitive: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo"))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on non-bearer")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   "))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on empty token")
	}

	if _, err := bearerTokenFromMD(context.Background()); err == nil {
		t.Fatalf("want error on no metadata")
	}
}

func Test_accountIDFromCtx(t *testing.T) {
	t.Parallel()

	iss := token.NewJWTIssuer([]byte("secret"))
	s := &Server{issuer: iss}

	tok, _, err := iss.Sign(token.Claims{Subject: "acc-7", Email: "a@b.com"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tok))
	id, err := s.accountIDFromCtx(ctx)
	if err != nil || id != "acc-7" {
		t.Fatalf("got %q %v", id, err)
	}

	expired, _, err := iss.Sign(token.Claims{Subject: "acc-7"}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+expired))
	_, err = s.accountIDFromCtx(ctx)
	if !errors.Is(err, errs.ErrUnauthorized) || !errors.Is(err, errs.ErrTokenExpired) {
		t.Fatalf("want unauthorized/expired, got %v", err)
	}

	refresh, _, err := iss.Sign(token.Claims{Subject: "acc-7", Kind: token.KindRefresh}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+refresh))
	if _, err := s.accountIDFromCtx(ctx); !errors.Is(err, errs.ErrTokenInvalid) {
		t.Fatalf("want refresh token rejected, got %v", err)
	}

	if _, err := s.accountIDFromCtx(context.Background()); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want unauthorized without metadata, got %v", err)
	}
}
