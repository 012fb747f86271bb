// Package config loads the immutable server configuration from the
// environment and command-line flags. Flags override the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is built once at startup and passed by value to constructors.
type Config struct {
	Addr   string `env:"AUTH_ADDR" envDefault:":8443"`
	DSN    string `env:"AUTH_DSN"` // empty runs with the in-memory store
	JWTKey string `env:"AUTH_JWT_KEY"`

	AccessTTL      time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL     time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`
	CallTimeout    time.Duration `env:"AUTH_CALL_TIMEOUT" envDefault:"3s"`
	RequestTimeout time.Duration `env:"AUTH_REQUEST_TIMEOUT" envDefault:"10s"`

	// IdentityAddr is the user service address; empty uses an in-process resolver.
	IdentityAddr string `env:"AUTH_IDENTITY_ADDR"`
	IdentityTLS  bool   `env:"AUTH_IDENTITY_TLS"`

	HashWorkers int `env:"AUTH_HASH_WORKERS" envDefault:"0"` // 0 means GOMAXPROCS

	LoginWindow   time.Duration `env:"AUTH_LOGIN_WINDOW" envDefault:"15m"`
	LoginMaxFails int           `env:"AUTH_LOGIN_MAX_FAILS" envDefault:"5"` // 0 disables throttling
	LoginBlockFor time.Duration `env:"AUTH_LOGIN_BLOCK_FOR" envDefault:"15m"`

	TLSCert string `env:"AUTH_TLS_CERT"`
	TLSKey  string `env:"AUTH_TLS_KEY"`
	Dev     bool   `env:"AUTH_DEV"`
}

const minKeyLen = 32

// Load reads the process environment, then applies args (without the program name).
func Load(args []string) (Config, error) {
	return load(args, env.Options{})
}

func load(args []string, opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("auth-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN (empty: in-memory store)")
	fs.StringVar(&cfg.JWTKey, "jwt-key", cfg.JWTKey, "HS256 signing key (required)")
	fs.DurationVar(&cfg.AccessTTL, "access-ttl", cfg.AccessTTL, "access token TTL")
	fs.DurationVar(&cfg.RefreshTTL, "refresh-ttl", cfg.RefreshTTL, "refresh token TTL")
	fs.DurationVar(&cfg.CallTimeout, "call-timeout", cfg.CallTimeout, "timeout of each store/identity call")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "timeout of each RPC")
	fs.StringVar(&cfg.IdentityAddr, "identity-addr", cfg.IdentityAddr, "user service address (empty: in-process)")
	fs.BoolVar(&cfg.IdentityTLS, "identity-tls", cfg.IdentityTLS, "use TLS towards the user service")
	fs.IntVar(&cfg.HashWorkers, "hash-workers", cfg.HashWorkers, "concurrent password hashes (0: GOMAXPROCS)")
	fs.DurationVar(&cfg.LoginWindow, "login-window", cfg.LoginWindow, "failed login counting window")
	fs.IntVar(&cfg.LoginMaxFails, "login-max-fails", cfg.LoginMaxFails, "failed logins before a block (0: off)")
	fs.DurationVar(&cfg.LoginBlockFor, "login-block-for", cfg.LoginBlockFor, "block duration")
	fs.StringVar(&cfg.TLSCert, "tls-cert", cfg.TLSCert, "TLS certificate (PEM)")
	fs.StringVar(&cfg.TLSKey, "tls-key", cfg.TLSKey, "TLS private key (PEM)")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "enable server reflection (dev only)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (c Config) Validate() error {
	var problems []error
	if len(c.JWTKey) < minKeyLen {
		problems = append(problems, fmt.Errorf("jwt key must be at least %d bytes", minKeyLen))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		problems = append(problems, errors.New("token TTLs must be positive"))
	} else if c.AccessTTL >= c.RefreshTTL {
		problems = append(problems, errors.New("access TTL must be shorter than refresh TTL"))
	}
	if c.CallTimeout < 0 || c.RequestTimeout < 0 {
		problems = append(problems, errors.New("timeouts must not be negative"))
	}
	if c.HashWorkers < 0 {
		problems = append(problems, errors.New("hash workers must not be negative"))
	}
	if c.LoginMaxFails < 0 {
		problems = append(problems, errors.New("login max fails must not be negative"))
	}
	if c.LoginMaxFails > 0 && (c.LoginWindow <= 0 || c.LoginBlockFor <= 0) {
		problems = append(problems, errors.New("login window and block duration must be positive"))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		problems = append(problems, errors.New("tls cert and key must be set together"))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}

// ThrottleLogins reports whether the login limiter is enabled.
func (c Config) ThrottleLogins() bool { return c.LoginMaxFails > 0 }
