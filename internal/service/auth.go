// Package service contains the credential lifecycle: registration, login,
// refresh-token rotation and logout.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	pkgcrypto "github.com/and161185/goph-auth/internal/crypto"
	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/identity"
	"github.com/and161185/goph-auth/internal/limiter"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/and161185/goph-auth/internal/repository"
	"github.com/and161185/goph-auth/internal/token"
	"go.uber.org/zap"
)

// AuthService defines the credential commands.
type AuthService interface {
	// Register creates the identity and the credential record and returns a fresh session.
	Register(ctx context.Context, cmd model.RegisterCommand) (model.AuthResult, error)
	// Login checks the password, applies rate limiting and starts a new session.
	Login(ctx context.Context, cmd model.LoginCommand) (model.AuthResult, error)
	// RefreshToken rotates a refresh token; the presented token stops working.
	RefreshToken(ctx context.Context, refreshToken string) (model.Tokens, error)
	// Logout drops the refresh session of the account. Repeated calls succeed.
	Logout(ctx context.Context, accountID string) error
}

// Config holds orchestrator settings.
type Config struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	CallTimeout time.Duration // bound for every store and resolver call; 0 disables
}

const minNameLen = 2

type AuthServiceImpl struct {
	creds  repository.CredentialRepository
	ids    identity.Resolver
	hasher pkgcrypto.PasswordHasher
	issuer token.Issuer
	lim    limiter.Limiter
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
// A nil limiter disables throttling, a nil logger disables logging.
func NewAuthService(
	creds repository.CredentialRepository,
	ids identity.Resolver,
	hasher pkgcrypto.PasswordHasher,
	issuer token.Issuer,
	lim limiter.Limiter,
	cfg Config,
	log *zap.Logger,
) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{
		creds:  creds,
		ids:    ids,
		hasher: hasher,
		issuer: issuer,
		lim:    lim,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Register creates the identity first, then the credential record with the same id.
// A failure after the identity exists leaves it orphaned; that is logged, not undone.
func (s *AuthServiceImpl) Register(ctx context.Context, cmd model.RegisterCommand) (model.AuthResult, error) {
	email, err := model.NewEmail(cmd.Email)
	if err != nil {
		return model.AuthResult{}, err
	}
	pw, err := model.NewPassword(cmd.Password)
	if err != nil {
		return model.AuthResult{}, err
	}
	name := strings.TrimSpace(cmd.Name)
	if name != "" && utf8.RuneCountInString(name) < minNameLen {
		return model.AuthResult{}, errs.ErrInvalidName
	}
	if name == "" {
		name = email.LocalPart()
	}

	lookup, err := call(s, ctx, func(ctx context.Context) (model.Lookup, error) {
		return s.ids.GetUserByEmail(ctx, email)
	})
	if err != nil {
		return model.AuthResult{}, errs.Unavailable("register: lookup identity", err)
	}
	if lookup.Found {
		return model.AuthResult{}, errs.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(ctx, pw.Plain())
	if err != nil {
		return model.AuthResult{}, errs.Unavailable("register: hash password", err)
	}

	ident, err := call(s, ctx, func(ctx context.Context) (model.Identity, error) {
		return s.ids.CreateUser(ctx, email, name)
	})
	if err != nil {
		if errors.Is(err, errs.ErrUserAlreadyExists) || errors.Is(err, errs.ErrInvalidName) || errors.Is(err, errs.ErrInvalidEmail) {
			return model.AuthResult{}, err
		}
		return model.AuthResult{}, errs.Unavailable("register: create identity", err)
	}

	cred := model.NewCredential(email, hash)
	cred.ID = ident.ID
	saved, err := call(s, ctx, func(ctx context.Context) (*model.Credential, error) {
		return s.creds.Save(ctx, cred)
	})
	if err != nil {
		s.log.Error("identity created without credentials",
			zap.String("account_id", ident.ID),
			zap.Error(err),
		)
		if errors.Is(err, errs.ErrAlreadyExists) {
			return model.AuthResult{}, errs.ErrUserAlreadyExists
		}
		return model.AuthResult{}, errs.Unavailable("register: save credential", err)
	}

	claimEmail := ident.Email
	if claimEmail == "" {
		claimEmail = email.String()
	}
	tokens, err := s.issue(saved.ID, claimEmail)
	if err != nil {
		return model.AuthResult{}, err
	}
	saved.SetRefreshToken(&tokens.RefreshToken)
	if err := s.exec(ctx, func(ctx context.Context) error {
		return s.creds.UpdateRefreshToken(ctx, saved.ID, saved.RefreshToken)
	}); err != nil {
		return model.AuthResult{}, errs.Unavailable("register: store refresh token", err)
	}

	s.log.Info("account registered", zap.String("account_id", saved.ID))
	return model.AuthResult{Tokens: tokens, User: ident}, nil
}

// Login authenticates with rate limiting by (email, remote address).
// Unknown email, wrong password and a missing identity all fail with
// errs.ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, cmd model.LoginCommand) (model.AuthResult, error) {
	email, err := model.NewEmail(cmd.Email)
	if err != nil {
		return model.AuthResult{}, errs.ErrInvalidCredentials
	}
	key := email.String()
	addr := limiter.HashAddr(cmd.RemoteAddr)

	allowed, _, err := call2(s, ctx, func(ctx context.Context) (bool, time.Duration, error) {
		return s.lim.Allow(ctx, key, addr)
	})
	if err != nil {
		return model.AuthResult{}, errs.Unavailable("login: check limiter", err)
	}
	if !allowed {
		return model.AuthResult{}, errs.ErrRateLimited
	}

	cred, err := call(s, ctx, func(ctx context.Context) (*model.Credential, error) {
		return s.creds.FindByEmail(ctx, email)
	})
	switch {
	case errors.Is(err, errs.ErrNotFound):
		// same work as a real mismatch so timing does not reveal the miss
		_, _ = s.hasher.Compare(ctx, cmd.Password, pkgcrypto.DummyHash)
		return model.AuthResult{}, s.failLogin(ctx, key, addr)
	case err != nil:
		return model.AuthResult{}, errs.Unavailable("login: find credential", err)
	}

	ok, err := s.hasher.Compare(ctx, cmd.Password, cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pkgcrypto.ErrMalformedHash) {
			s.log.Error("stored password hash is malformed", zap.String("account_id", cred.ID))
			return model.AuthResult{}, errs.ErrInvalidCredentials
		}
		return model.AuthResult{}, errs.Unavailable("login: compare password", err)
	}
	if !ok {
		return model.AuthResult{}, s.failLogin(ctx, key, addr)
	}

	lookup, err := call(s, ctx, func(ctx context.Context) (model.Lookup, error) {
		return s.ids.GetUserByEmail(ctx, email)
	})
	if err != nil {
		return model.AuthResult{}, errs.Unavailable("login: lookup identity", err)
	}
	if !lookup.Found {
		s.log.Warn("credential without identity", zap.String("account_id", cred.ID))
		return model.AuthResult{}, errs.ErrInvalidCredentials
	}

	claimEmail := lookup.Identity.Email
	if claimEmail == "" {
		claimEmail = cred.Email.String()
	}
	tokens, err := s.issue(cred.ID, claimEmail)
	if err != nil {
		return model.AuthResult{}, err
	}

	now := s.now()
	cred.SetRefreshToken(&tokens.RefreshToken)
	cred.TouchLastLogin(now)

	if err := s.exec(ctx, func(ctx context.Context) error {
		return s.creds.UpdateRefreshToken(ctx, cred.ID, cred.RefreshToken)
	}); err != nil {
		return model.AuthResult{}, errs.Unavailable("login: store refresh token", err)
	}
	if err := s.exec(ctx, func(ctx context.Context) error {
		return s.creds.UpdateLastLogin(ctx, cred.ID, now)
	}); err != nil {
		s.log.Warn("last login not stored", zap.String("account_id", cred.ID), zap.Error(err))
	}
	if err := s.exec(ctx, func(ctx context.Context) error {
		return s.lim.Success(ctx, key, addr)
	}); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}

	return model.AuthResult{Tokens: tokens, User: lookup.Identity}, nil
}

// failLogin records a failed attempt and picks the error to return.
func (s *AuthServiceImpl) failLogin(ctx context.Context, key string, addr []byte) error {
	blocked, _, err := call2(s, ctx, func(ctx context.Context) (bool, time.Duration, error) {
		return s.lim.Failure(ctx, key, addr)
	})
	if err != nil {
		s.log.Warn("limiter failure not recorded", zap.Error(err))
		return errs.ErrInvalidCredentials
	}
	if blocked {
		return errs.ErrRateLimited
	}
	return errs.ErrInvalidCredentials
}

// RefreshToken accepts only the refresh token currently stored for the account
// and replaces it with a new one in a single compare-and-swap.
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (model.Tokens, error) {
	if refreshToken == "" {
		return model.Tokens{}, errs.ErrUnauthorized
	}
	claims, err := token.VerifyKind(s.issuer, refreshToken, token.KindRefresh)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}

	cred, err := call(s, ctx, func(ctx context.Context) (*model.Credential, error) {
		return s.creds.FindByID(ctx, claims.Subject)
	})
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return model.Tokens{}, errs.ErrUnauthorized
	case err != nil:
		return model.Tokens{}, errs.Unavailable("refresh: find credential", err)
	}
	if !cred.HasSession() || subtle.ConstantTimeCompare([]byte(*cred.RefreshToken), []byte(refreshToken)) != 1 {
		return model.Tokens{}, errs.ErrUnauthorized
	}

	tokens, err := s.issue(cred.ID, cred.Email.String())
	if err != nil {
		return model.Tokens{}, err
	}
	swapped, err := call(s, ctx, func(ctx context.Context) (bool, error) {
		return s.creds.SwapRefreshToken(ctx, cred.ID, refreshToken, tokens.RefreshToken)
	})
	if err != nil {
		return model.Tokens{}, errs.Unavailable("refresh: store refresh token", err)
	}
	if !swapped {
		// a concurrent refresh or logout won
		return model.Tokens{}, errs.ErrUnauthorized
	}
	return tokens, nil
}

// Logout clears the stored refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, accountID string) error {
	if accountID == "" {
		return errs.ErrUserNotFound
	}
	cred, err := call(s, ctx, func(ctx context.Context) (*model.Credential, error) {
		return s.creds.FindByID(ctx, accountID)
	})
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return errs.ErrUserNotFound
	case err != nil:
		return errs.Unavailable("logout: find credential", err)
	}

	cred.Logout()
	if err := s.exec(ctx, func(ctx context.Context) error {
		return s.creds.UpdateRefreshToken(ctx, cred.ID, cred.RefreshToken)
	}); err != nil {
		return errs.Unavailable("logout: clear refresh token", err)
	}
	return nil
}

// issue signs an access and a refresh token for the same claims.
func (s *AuthServiceImpl) issue(subject, email string) (model.Tokens, error) {
	access, exp, err := s.issuer.Sign(token.Claims{Subject: subject, Email: email, Kind: token.KindAccess}, s.cfg.AccessTTL)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, _, err := s.issuer.Sign(token.Claims{Subject: subject, Email: email, Kind: token.KindRefresh}, s.cfg.RefreshTTL)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

func (s *AuthServiceImpl) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

func (s *AuthServiceImpl) exec(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return fn(ctx)
}

func call[T any](s *AuthServiceImpl, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return fn(ctx)
}

func call2[A, B any](s *AuthServiceImpl, ctx context.Context, fn func(context.Context) (A, B, error)) (A, B, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return fn(ctx)
}
