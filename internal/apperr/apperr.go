// Package apperr defines the error taxonomy shared by the account and social services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups errors by how callers should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a classified service error. Two errors match under errors.Is when their
// codes are equal, so sentinels can be re-issued with a different message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithMessage returns a copy of e with a caller-facing message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap returns a copy of e that wraps cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// New constructs an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds a validation error with a free-form message.
func Validation(message string) *Error {
	return ErrValidation.WithMessage(message)
}

// Internal wraps an unexpected failure. The message is safe to log but is never
// returned to clients.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: message, Err: err}
}

// KindOf classifies err, treating unknown errors as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the message that may be shown to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}

var (
	ErrValidation     = New(KindValidation, "validation_failed", "invalid request")
	ErrInvalidMedia   = New(KindValidation, "invalid_media", "invalid media")
	ErrSelfFollow     = New(KindValidation, "self_follow", "You cannot follow yourself")
	ErrStoryExpired   = New(KindValidation, "story_expired", "Story has expired")
	ErrInvalidToken   = New(KindValidation, "invalid_verification_token", "Invalid verification token")
	ErrTokenExpired   = New(KindValidation, "verification_token_expired", "Verification token has expired")
	ErrAccountExists  = New(KindConflict, "account_exists", "User already exists")
	ErrAlreadyFollows = New(KindConflict, "already_following", "You are already following this user")
	ErrNotFollowing   = New(KindConflict, "not_following", "You are not following this user")

	ErrUnauthorized       = New(KindUnauthorized, "unauthorized", "Authentication required")
	ErrInvalidCredentials = New(KindUnauthorized, "invalid_credentials", "Invalid credentials")
	ErrEmailNotVerified   = New(KindUnauthorized, "email_not_verified", "Please verify your email address before logging in")

	ErrAccountNotFound      = New(KindNotFound, "account_not_found", "User not found")
	ErrContentNotFound      = New(KindNotFound, "content_not_found", "Content not found")
	ErrCommentsNotSupported = New(KindNotFound, "comments_not_supported", "Content not found or comments not supported")

	ErrForbidden = New(KindForbidden, "forbidden", "You can only delete your own content")
)
