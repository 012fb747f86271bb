package grpcserver

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/token"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		var remote string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		// metadata only, payloads carry passwords and tokens
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remote),
		}
		if r := ReasonOf(err); r != "" {
			fields = append(fields, zap.String("reason", string(r)))
		}
		if code == codes.Internal || code == codes.Unavailable {
			log.Warn("grpc", fields...)
		} else {
			log.Info("grpc", fields...)
		}
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// TimeoutUnary bounds every call by d unless the client set a shorter deadline.
func TimeoutUnary(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return next(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx, req)
	}
}

// BearerUnary verifies the bearer access token on the listed methods and
// stores its subject with WithAccountID. Other methods pass through untouched.
func BearerUnary(issuer token.Issuer, methods ...string) grpc.UnaryServerInterceptor {
	protected := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		protected[m] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if _, ok := protected[info.FullMethod]; !ok {
			return next(ctx, req)
		}
		tok, err := bearerTokenFromMD(ctx)
		if err != nil {
			return nil, toStatus(errs.ErrUnauthorized)
		}
		claims, err := token.VerifyKind(issuer, tok, token.KindAccess)
		if err != nil {
			return nil, toStatus(errs.ErrUnauthorized)
		}
		return next(WithAccountID(ctx, claims.Subject), req)
	}
}
