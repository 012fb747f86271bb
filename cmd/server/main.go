// Command auth-server starts the credential gRPC server.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/goph-auth/internal/config"
	"github.com/and161185/goph-auth/internal/crypto"
	"github.com/and161185/goph-auth/internal/identity"
	"github.com/and161185/goph-auth/internal/limiter"
	"github.com/and161185/goph-auth/internal/migrate"
	"github.com/and161185/goph-auth/internal/repository"
	"github.com/and161185/goph-auth/internal/repository/memory"
	"github.com/and161185/goph-auth/internal/repository/postgres"
	"github.com/and161185/goph-auth/internal/rpc"
	grpcserver "github.com/and161185/goph-auth/internal/server/grpc"
	"github.com/and161185/goph-auth/internal/service"
	"github.com/and161185/goph-auth/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	s, cleanup, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", cfg.TLSCert != ""))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// newServer wires storage, identity, hashing, tokens and the limiter into a
// ready gRPC server. cleanup releases pools and client connections.
func newServer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*grpc.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*grpc.Server, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	var (
		creds repository.CredentialRepository
		lim   limiter.Limiter = limiter.Nop{}
	)
	if cfg.DSN != "" {
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			return fail(fmt.Errorf("migrate up: %w", err))
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)
		creds = postgres.NewCredentialRepo(db)
		if cfg.ThrottleLogins() {
			lim = limiter.NewPG(db.Pool, limiter.Config{
				Window:   cfg.LoginWindow,
				MaxFails: cfg.LoginMaxFails,
				BlockFor: cfg.LoginBlockFor,
			})
		}
	} else {
		logger.Warn("no dsn configured, using in-memory credential store")
		creds = memory.NewCredentialRepo()
		if cfg.ThrottleLogins() {
			logger.Warn("login throttling needs postgres, disabled")
		}
	}

	var (
		ids      identity.Resolver
		localIDs *identity.Memory
	)
	if cfg.IdentityAddr != "" {
		tc := insecure.NewCredentials()
		if cfg.IdentityTLS {
			tc = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		}
		cc, err := grpc.NewClient(cfg.IdentityAddr, grpc.WithTransportCredentials(tc))
		if err != nil {
			return fail(fmt.Errorf("identity client: %w", err))
		}
		closers = append(closers, func() { _ = cc.Close() })
		ids = identity.NewClient(cc)
	} else {
		logger.Warn("no identity address configured, using in-process user service")
		localIDs = identity.NewMemory()
		ids = localIDs
	}

	issuer := token.NewJWTIssuer([]byte(cfg.JWTKey))
	authSvc := service.NewAuthService(
		creds,
		ids,
		crypto.NewArgon2Hasher(cfg.HashWorkers),
		issuer,
		lim,
		service.Config{
			AccessTTL:   cfg.AccessTTL,
			RefreshTTL:  cfg.RefreshTTL,
			CallTimeout: cfg.CallTimeout,
		},
		logger.Named("auth"),
	)

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.TimeoutUnary(cfg.RequestTimeout),
			grpcserver.BearerUnary(issuer, rpc.AuthLogout),
		),
	}
	if cfg.TLSCert != "" {
		tc, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fail(fmt.Errorf("load TLS cert/key: %w", err))
		}
		opts = append(opts, grpc.Creds(tc))
	}
	s := grpc.NewServer(opts...)

	rpc.RegisterAuthServiceServer(s, grpcserver.New(authSvc, issuer))
	if localIDs != nil {
		rpc.RegisterUserServiceServer(s, identity.NewServer(localIDs))
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(rpc.AuthServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Dev {
		reflection.Register(s)
	}
	return s, cleanup, nil
}
