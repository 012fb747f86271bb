package model

import "time"

// Tokens collects an issued access/refresh pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Tokens Tokens
	User   Identity
}

// RegisterCommand carries registration input. Name is optional.
type RegisterCommand struct {
	Email    string
	Password string
	Name     string
}

// LoginCommand carries login input. RemoteAddr is used only for throttling.
type LoginCommand struct {
	Email      string
	Password   string
	RemoteAddr string
}
