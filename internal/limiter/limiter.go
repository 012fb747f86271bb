// Package limiter defines interfaces and implementations for login rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls login attempts and temporary lockouts per (email, address).
type Limiter interface {
	// Allow reports whether login is currently allowed and optional retry-after.
	Allow(ctx context.Context, email string, addrHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, email string, addrHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, email string, addrHash []byte) (bool, time.Duration, error)
}

// Nop never blocks. Used when throttling is disabled.
type Nop struct{}

// Allow always allows.
func (Nop) Allow(context.Context, string, []byte) (bool, time.Duration, error) { return true, 0, nil }

// Success does nothing.
func (Nop) Success(context.Context, string, []byte) error { return nil }

// Failure never blocks.
func (Nop) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}
