package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken indicates the access token is malformed, forged or signed with another key.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrTokenExpired indicates the access token was valid but has expired.
	ErrTokenExpired = errors.New("access token expired")
)

const defaultIssuer = "fmeta"

// TokenSigner issues and verifies HS256 access tokens whose subject is the account id.
type TokenSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenSigner constructs a signer using the shared secret.
func NewTokenSigner(secret string) (*TokenSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret must not be empty")
	}
	return &TokenSigner{secret: []byte(secret), issuer: defaultIssuer, now: time.Now}, nil
}

// Sign produces a token for accountID valid until expiresAt.
func (s *TokenSigner) Sign(accountID string, expiresAt time.Time) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the account id.
func (s *TokenSigner) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
