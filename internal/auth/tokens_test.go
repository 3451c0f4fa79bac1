package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer, err := NewTokenSigner("secret")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.Sign("account-1", time.Now().Add(7*24*time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	accountID, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if accountID != "account-1" {
		t.Fatalf("unexpected subject %q", accountID)
	}
}

func TestTokenSignerRejectsBadTokens(t *testing.T) {
	signer, _ := NewTokenSigner("secret")
	other, _ := NewTokenSigner("another-secret")

	forged, err := other.Sign("account-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": forged,
		"empty":        "",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenSignerExpiry(t *testing.T) {
	signer, _ := NewTokenSigner("secret")
	issued := time.Now()
	signer.now = func() time.Time { return issued }

	token, err := signer.Sign("account-1", issued.Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	signer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := signer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestNewTokenSignerRequiresSecret(t *testing.T) {
	if _, err := NewTokenSigner("  "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hasher := BcryptHasher{Cost: 4}
	hash, err := hasher.Hash("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22" || !hasher.Matches(hash, "hunter22") || hasher.Matches(hash, "wrong") {
		t.Fatalf("unexpected hash behaviour for %q", hash)
	}
}

func TestNewVerificationToken(t *testing.T) {
	a, err := NewVerificationToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, _ := NewVerificationToken()
	if len(a) != 64 || a == b || strings.Trim(a, "0123456789abcdef") != "" {
		t.Fatalf("unexpected verification tokens %q %q", a, b)
	}
}
