package model

import (
	"testing"
	"time"
)

func TestCredential_Lifecycle(t *testing.T) {
	t.Parallel()

	email, err := NewEmail("a@b.com")
	if err != nil {
		t.Fatalf("NewEmail: %v", err)
	}
	c := NewCredential(email, "hash")
	if c.ID != "" || c.RefreshToken != nil || c.LastLoginAt != nil {
		t.Fatalf("fresh credential has state: %+v", c)
	}
	if c.HasSession() {
		t.Fatalf("fresh credential must have no session")
	}

	tok := "r1"
	c.SetRefreshToken(&tok)
	tok = "mutated"
	if c.RefreshToken == nil || *c.RefreshToken != "r1" {
		t.Fatalf("SetRefreshToken must copy the value, got %v", c.RefreshToken)
	}
	if !c.HasSession() {
		t.Fatalf("want session after SetRefreshToken")
	}

	now := time.Now()
	c.TouchLastLogin(now)
	if c.LastLoginAt == nil || !c.LastLoginAt.Equal(now) {
		t.Fatalf("TouchLastLogin not applied")
	}

	c.Logout()
	if c.RefreshToken != nil {
		t.Fatalf("Logout must clear the token")
	}
	c.Logout()
	if c.RefreshToken != nil || c.LastLoginAt == nil {
		t.Fatalf("second Logout must be a no-op")
	}

	c.SetRefreshToken(nil)
	if c.RefreshToken != nil {
		t.Fatalf("SetRefreshToken(nil) must clear")
	}
}

func TestCredential_Clone(t *testing.T) {
	t.Parallel()

	email, _ := NewEmail("a@b.com")
	c := NewCredential(email, "hash")
	c.ID = "id-1"
	tok := "r1"
	c.SetRefreshToken(&tok)
	c.TouchLastLogin(time.Unix(100, 0))

	cp := c.Clone()
	*cp.RefreshToken = "r2"
	*cp.LastLoginAt = time.Unix(200, 0)

	if *c.RefreshToken != "r1" || c.LastLoginAt.Unix() != 100 {
		t.Fatalf("clone shares pointers with original")
	}
	if cp.ID != "id-1" || !cp.Email.Equal(email) {
		t.Fatalf("clone lost fields: %+v", cp)
	}
}
