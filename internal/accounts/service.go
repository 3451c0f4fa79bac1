// Package accounts implements registration, email verification, login and
// profile management.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/auth"
	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/mailer"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/repositories"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 8
	// VerificationLifetime bounds how long an email verification link stays valid.
	VerificationLifetime = 24 * time.Hour
	// SearchLimit caps username search results.
	SearchLimit = 20
)

// SessionIssuer issues, rotates and revokes token pairs.
type SessionIssuer interface {
	Issue(ctx context.Context, accountID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) bool
}

// VerificationMailer queues verification mail.
type VerificationMailer interface {
	SendVerification(ctx context.Context, msg mailer.Verification) error
}

// Service implements the account use cases.
type Service struct {
	Accounts repositories.AccountRepository
	Sessions SessionIssuer
	Hasher   PasswordHasher
	Mailer   VerificationMailer
	NowFunc  func() time.Time
	// NewToken generates email verification tokens. Defaults to auth.NewVerificationToken.
	NewToken func() (string, error)
}

func (s Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s Service) newToken() (string, error) {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return auth.NewVerificationToken()
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string
	Username string
	Password string
	Email    string
	Phone    string
}

// RegisterResult describes a new account. Tokens is only set when the account
// can log in immediately, which is the case for phone-only registrations.
type RegisterResult struct {
	Account              models.Account
	Tokens               *models.SessionTokens
	VerificationRequired bool
}

// Register creates an account. Accounts registered with an email address must
// confirm it before they can log in.
func (s Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	logger := logging.FromContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Name == "" || in.Username == "" || in.Password == "" {
		return RegisterResult{}, apperr.Validation("Name, username and password are required")
	}
	if in.Email == "" && in.Phone == "" {
		return RegisterResult{}, apperr.Validation("Either email or phone number is required")
	}
	if len(in.Password) < MinPasswordLength {
		return RegisterResult{}, apperr.Validation("Password must be at least 8 characters")
	}

	existing, err := s.Accounts.FindConflicting(ctx, in.Username, in.Email, in.Phone)
	if err != nil {
		return RegisterResult{}, apperr.Internal("check existing accounts", err)
	}
	if len(existing) > 0 {
		field := conflictingField(existing, in)
		logger.Warn("registration conflict", "field", field, "username", in.Username)
		return RegisterResult{}, apperr.ErrAccountExists.WithMessage("User already exists with this " + field)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{}, apperr.Internal("hash password", err)
	}

	now := s.now()
	account := models.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Email != "" {
		token, err := s.newToken()
		if err != nil {
			return RegisterResult{}, apperr.Internal("generate verification token", err)
		}
		account.VerificationToken = token
		account.VerificationExpires = now.Add(VerificationLifetime)
	}

	if err := s.Accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return RegisterResult{}, apperr.ErrAccountExists
		}
		return RegisterResult{}, apperr.Internal("create account", err)
	}

	result := RegisterResult{Account: account}
	if account.RequiresVerification() {
		result.VerificationRequired = true
		s.sendVerification(ctx, account)
		return result, nil
	}

	tokens, err := s.Sessions.Issue(ctx, account.ID)
	if err != nil {
		return RegisterResult{}, apperr.Internal("issue session", err)
	}
	result.Tokens = &tokens
	return result, nil
}

func conflictingField(existing []models.Account, in RegisterInput) string {
	for _, account := range existing {
		if account.Username == in.Username {
			return "username"
		}
	}
	for _, account := range existing {
		if in.Email != "" && account.Email == in.Email {
			return "email"
		}
	}
	return "phone number"
}

// sendVerification never fails registration; delivery problems are logged.
func (s Service) sendVerification(ctx context.Context, account models.Account) {
	logger := logging.FromContext(ctx)
	if s.Mailer == nil {
		logger.Warn("verification mailer unavailable", "accountId", account.ID)
		return
	}
	msg := mailer.Verification{To: account.Email, Name: account.Name, Token: account.VerificationToken}
	if err := s.Mailer.SendVerification(ctx, msg); err != nil {
		logger.Error("failed to queue verification mail", "accountId", account.ID, "error", err)
	}
}

// VerifyResult reports the outcome of an email verification.
type VerifyResult struct {
	Account         models.Account
	AlreadyVerified bool
}

// VerifyEmail consumes a verification token.
func (s Service) VerifyEmail(ctx context.Context, token string) (VerifyResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return VerifyResult{}, apperr.Validation("Verification token is required")
	}

	account, err := s.Accounts.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return VerifyResult{}, apperr.ErrInvalidToken
		}
		return VerifyResult{}, apperr.Internal("find verification token", err)
	}

	now := s.now()
	if !now.Before(account.VerificationExpires) {
		return VerifyResult{}, apperr.ErrTokenExpired.WithMessage("Verification token has expired. Please request a new verification email.")
	}
	if account.Verified {
		return VerifyResult{Account: account, AlreadyVerified: true}, nil
	}

	account.Verified = true
	account.VerificationToken = ""
	account.VerificationExpires = time.Time{}
	account.UpdatedAt = now
	if err := s.Accounts.Update(ctx, account); err != nil {
		return VerifyResult{}, apperr.Internal("mark account verified", err)
	}

	logging.FromContext(ctx).Info("email verified", "accountId", account.ID)
	return VerifyResult{Account: account}, nil
}

// LoginResult pairs the authenticated account with its new tokens.
type LoginResult struct {
	Account models.Account
	Tokens  models.SessionTokens
}

// Login authenticates identifier, which may be an email address, phone number
// or username.
func (s Service) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	logger := logging.FromContext(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return LoginResult{}, apperr.Validation("Email/phone/username and password are required")
	}

	account, err := s.Accounts.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login unknown account")
			return LoginResult{}, apperr.ErrInvalidCredentials
		}
		return LoginResult{}, apperr.Internal("find account", err)
	}

	if !s.Hasher.Matches(account.PasswordHash, password) {
		logger.Warn("login password mismatch", "accountId", account.ID)
		return LoginResult{}, apperr.ErrInvalidCredentials
	}
	if account.RequiresVerification() {
		logger.Warn("login before email verification", "accountId", account.ID)
		return LoginResult{}, apperr.ErrEmailNotVerified
	}

	tokens, err := s.Sessions.Issue(ctx, account.ID)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue session", err)
	}
	return LoginResult{Account: account, Tokens: tokens}, nil
}

// Refresh rotates a refresh token.
func (s Service) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return models.SessionTokens{}, apperr.ErrUnauthorized.WithMessage("No token provided")
	}

	tokens, err := s.Sessions.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrRefreshTokenExpired) {
			return models.SessionTokens{}, apperr.ErrUnauthorized.WithMessage("Invalid or expired token")
		}
		return models.SessionTokens{}, apperr.Internal("refresh session", err)
	}
	return tokens, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s Service) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	if err := s.Sessions.Revoke(ctx, refreshToken); err != nil {
		return apperr.Internal("revoke session", err)
	}
	return nil
}
