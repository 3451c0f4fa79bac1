package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesOnCode(t *testing.T) {
	custom := ErrAccountExists.WithMessage("User already exists with this email")

	if !errors.Is(custom, ErrAccountExists) {
		t.Fatal("expected re-messaged error to match its sentinel")
	}
	if errors.Is(custom, ErrAlreadyFollows) {
		t.Fatal("expected different codes not to match")
	}

	wrapped := fmt.Errorf("register: %w", custom)
	if !errors.Is(wrapped, ErrAccountExists) {
		t.Fatal("expected wrapped error to match")
	}
	if got := PublicMessage(wrapped); got != "User already exists with this email" {
		t.Fatalf("unexpected public message %q", got)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{err: ErrSelfFollow, want: KindValidation},
		{err: ErrNotFollowing, want: KindConflict},
		{err: ErrInvalidCredentials, want: KindUnauthorized},
		{err: fmt.Errorf("lookup: %w", ErrContentNotFound), want: KindNotFound},
		{err: ErrForbidden, want: KindForbidden},
		{err: errors.New("boom"), want: KindInternal},
	}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %v want %v", tc.err, got, tc.want)
		}
	}
}

func TestInternalHidesDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("load account", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if got := PublicMessage(err); got != "Internal server error" {
		t.Fatalf("internal detail leaked: %q", got)
	}
}
