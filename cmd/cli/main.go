// Command auth-cli is a command-line client for the credential service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/goph-auth/internal/convert"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/and161185/goph-auth/internal/rpc"
	grpcserver "github.com/and161185/goph-auth/internal/server/grpc"
)

// ---- session store ----

type tokenFile struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

var errNoSession = errors.New("no session (login required)")

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "goph-auth")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "goph-auth")
}

func tokenPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(t model.Tokens) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, ExpiresAt: accessExpiry(t.AccessToken)})
}

func loadSession() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return tokenFile{}, errNoSession
	}
	if err != nil {
		return tokenFile{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.RefreshToken == "" && tf.AccessToken == "" {
		return tokenFile{}, errNoSession
	}
	return tf, nil
}

func clearSession() error {
	err := os.Remove(tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ---- token inspection ----

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// peek decodes claims without verifying the signature; the CLI does not hold the key.
func peek(tok string) (sessionClaims, error) {
	var c sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &c); err != nil {
		return sessionClaims{}, err
	}
	return c, nil
}

func accessExpiry(tok string) time.Time {
	c, err := peek(tok)
	if err != nil || c.ExpiresAt == nil {
		return time.Now().Add(15 * time.Minute)
	}
	return c.ExpiresAt.Time
}

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify, plaintext bool) (credentials.TransportCredentials, error) {
	if plaintext {
		return insecure.NewCredentials(), nil
	}
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev flag
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}), nil
}

type dialConfig struct {
	addr       string
	caPath     string
	skipVerify bool
	plaintext  bool
}

func dial(dc dialConfig) (*grpc.ClientConn, *rpc.AuthServiceClient, error) {
	creds, err := loadTLS(dc.caPath, dc.skipVerify, dc.plaintext)
	if err != nil {
		return nil, nil, err
	}
	cc, err := grpc.NewClient(dc.addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, nil, err
	}
	return cc, rpc.NewAuthServiceClient(cc), nil
}

// ---- commands ----

type app struct {
	cli    *rpc.AuthServiceClient
	secure bool
	out    io.Writer
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("e", "", "email")
	pass := fs.String("p", "", "password")
	name := fs.String("n", "", "display name (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *pass == "" {
		return errors.New("need -e and -p")
	}
	resp, err := a.cli.Register(ctx, convert.ToProtoRegisterRequest(model.RegisterCommand{
		Email: *email, Password: *pass, Name: *name,
	}))
	if err != nil {
		return err
	}
	return a.startSession(resp)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("e", "", "email")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *pass == "" {
		return errors.New("need -e and -p")
	}
	resp, err := a.cli.Login(ctx, convert.ToProtoLoginRequest(*email, *pass))
	if err != nil {
		return err
	}
	return a.startSession(resp)
}

func (a *app) startSession(resp *structpb.Struct) error {
	res, err := convert.FromProtoAuthResult(resp)
	if err != nil {
		return err
	}
	if err := saveSession(res.Tokens); err != nil {
		return err
	}
	printJSON(a.out, res.User)
	return nil
}

func (a *app) refresh(ctx context.Context) error {
	tf, err := loadSession()
	if err != nil {
		return err
	}
	resp, err := a.cli.RefreshToken(ctx, convert.ToProtoRefreshRequest(tf.RefreshToken))
	if err != nil {
		return err
	}
	t, err := convert.FromProtoTokens(resp)
	if err != nil {
		return err
	}
	if err := saveSession(t); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

// logout drops the server session, then the local one.
func (a *app) logout(ctx context.Context) error {
	tf, err := loadSession()
	if err != nil {
		return err
	}
	_, err = a.cli.Logout(ctx, &structpb.Struct{},
		grpc.PerRPCCredentials(bearerCreds{token: tf.AccessToken, secure: a.secure}))
	if err != nil {
		return err
	}
	if err := clearSession(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func whoami(out io.Writer) error {
	tf, err := loadSession()
	if err != nil {
		return err
	}
	c, err := peek(tf.AccessToken)
	if err != nil {
		return err
	}
	printJSON(out, map[string]any{
		"account_id": c.Subject,
		"email":      c.Email,
		"expires_at": tf.ExpiresAt.UTC().Format(time.RFC3339),
		"expired":    time.Now().After(tf.ExpiresAt),
	})
	return nil
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `auth-cli
Usage:
  auth-cli -addr HOST:PORT [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  register   -e <email> -p <password> [-n <name>]   (saves session)
  login      -e <email> -p <password>               (saves session)
  refresh                                          (rotates refresh token)
  logout
  whoami                                           (decodes the saved access token)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands and configures TLS for RPC calls.
func main() {
	addr := flag.String("addr", "localhost:8443", "server addr")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	skipVerify := flag.Bool("insecure", false, "skip cert verify (dev)")
	plaintext := flag.Bool("plaintext", false, "no TLS at all (dev)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	switch cmd {
	case "version":
		fmt.Printf("auth-cli %s (%s)\n", version, buildDate)
		return
	case "whoami":
		if err := whoami(os.Stdout); err != nil {
			fail(err)
		}
		return
	case "register", "login", "refresh", "logout":
	default:
		usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cc, cli, err := dial(dialConfig{addr: *addr, caPath: *caPath, skipVerify: *skipVerify, plaintext: *plaintext})
	if err != nil {
		fail(err)
	}
	defer cc.Close()

	a := &app{cli: cli, secure: !*plaintext, out: os.Stdout}
	switch cmd {
	case "register":
		err = a.register(ctx, args)
	case "login":
		err = a.login(ctx, args)
	case "refresh":
		err = a.refresh(ctx)
	case "logout":
		err = a.logout(ctx)
	}
	if err != nil {
		fail(err)
	}
}

// ---- helpers ----

func fail(err error) {
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "rpc error: code=%s reason=%s msg=%s\n", s.Code(), grpcserver.ReasonOf(err), s.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
