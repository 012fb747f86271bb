package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/token"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const accountIDKey ctxKey = "auth.accountID"

// WithAccountID stores an authenticated account id in context.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// AccountIDFromCtx fetches the account id stored by WithAccountID.
func AccountIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}

// accountIDFromCtx returns the account id set upstream or, failing that, the
// subject of the bearer access token in the incoming metadata.
func (s *Server) accountIDFromCtx(ctx context.Context) (string, error) {
	if id, ok := AccountIDFromCtx(ctx); ok {
		return id, nil
	}
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	claims, err := token.VerifyKind(s.issuer, tok, token.KindAccess)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	return claims.Subject, nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
