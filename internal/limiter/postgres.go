package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the part of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config tunes the sliding window and lockout.
type Config struct {
	Window   time.Duration // failures older than this start a new count
	MaxFails int           // failures within Window that trigger a block
	BlockFor time.Duration
}

// PG is a PostgreSQL-backed limiter implementation with sliding window and lockout.
type PG struct {
	pool Querier
	cfg  Config
	now  func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter over the login_attempts table.
func NewPG(q Querier, cfg Config) *PG {
	return &PG{pool: q, cfg: cfg, now: time.Now}
}

// HashAddr returns a stable hash of the host part of a remote address so raw
// addresses are never stored. The port is dropped because it changes per connection.
func HashAddr(addr string) []byte {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	h := sha256.Sum256([]byte(addr))
	return h[:]
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, email string, addrHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE email=$1 AND addr_hash=$2`
	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, email, addrHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		if now := l.now(); blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success resets counters for (email, addr).
func (l *PG) Success(ctx context.Context, email string, addrHash []byte) error {
	const q = `
INSERT INTO login_attempts (email, addr_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,0,'epoch',now())
ON CONFLICT (email, addr_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.pool.Exec(ctx, q, email, addrHash)
	return err
}

// Failure records a failed attempt; may set a block until a future time.
func (l *PG) Failure(ctx context.Context, email string, addrHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_attempts (email, addr_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,1,'epoch',now())
ON CONFLICT (email, addr_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - login_attempts.updated_at > $3::interval THEN 1 ELSE login_attempts.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.pool.QueryRow(ctx, q, email, addrHash, l.cfg.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.cfg.MaxFails {
		return false, 0, nil
	}
	blockUntil := l.now().Add(l.cfg.BlockFor)
	const upd = `UPDATE login_attempts SET blocked_until=$3 WHERE email=$1 AND addr_hash=$2`
	if _, err := l.pool.Exec(ctx, upd, email, addrHash, blockUntil); err != nil {
		return false, 0, err
	}
	return true, l.cfg.BlockFor, nil
}
