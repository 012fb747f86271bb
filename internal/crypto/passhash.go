// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher hashes and compares passwords. Implementations must be salted,
// deliberately slow and compare in constant time.
type PasswordHasher interface {
	// Hash returns an encoded one-way hash of plain.
	Hash(ctx context.Context, plain string) (string, error)
	// Compare reports whether plain matches encoded.
	Compare(ctx context.Context, plain, encoded string) (bool, error)
}

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// ErrMalformedHash is returned when an encoded hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// DummyHash is a well-formed hash that matches no password. Compare against it
// when the account is missing so that response time does not reveal existence.
//
//nolint:gosec // not a credential
const DummyHash = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of password using the provided salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// Argon2Hasher is the production PasswordHasher. At most `workers` hashes run at
// once; callers beyond that wait for a slot or give up when ctx is done.
type Argon2Hasher struct {
	sem *semaphore.Weighted
}

// NewArgon2Hasher constructs a hasher. workers <= 0 means GOMAXPROCS.
func NewArgon2Hasher(workers int) *Argon2Hasher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Argon2Hasher{sem: semaphore.NewWeighted(int64(workers))}
}

// Hash produces a PHC-encoded argon2id hash with a random salt:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func (h *Argon2Hasher) Hash(ctx context.Context, plain string) (string, error) {
	salt, err := RandBytes(argonSaltLen)
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	sum := HashPassword([]byte(plain), salt)
	h.sem.Release(1)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Compare re-derives the hash with the encoded parameters and compares in constant time.
func (h *Argon2Hasher) Compare(ctx context.Context, plain, encoded string) (bool, error) {
	p, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(plain), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(got, p.key) == 1, nil
}

type hashParams struct {
	memory, time uint32
	threads      uint8
	salt, key    []byte
}

func decodeHash(encoded string) (hashParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return hashParams{}, ErrMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return hashParams{}, ErrMalformedHash
	}
	var p hashParams
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return hashParams{}, ErrMalformedHash
	}
	if threads == 0 || threads > 255 || p.time == 0 {
		return hashParams{}, ErrMalformedHash
	}
	p.threads = uint8(threads)

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return hashParams{}, ErrMalformedHash
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 || len(p.key) > 1024 {
		return hashParams{}, ErrMalformedHash
	}
	return p, nil
}
