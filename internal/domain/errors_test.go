package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesKindAndReason(t *testing.T) {
	cause := errors.New("token is expired")
	err := fmt.Errorf("validate: %w", NewAuthenticationError(ReasonExpired, "token expired", cause))

	if !errors.Is(err, ErrAuthentication) {
		t.Error("Expected error to match the kind sentinel")
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Error("Expected error to match the reason sentinel")
	}
	if errors.Is(err, ErrTokenInvalidSignature) {
		t.Error("Expected error not to match a different reason")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("Expected error not to match a different kind")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause to stay reachable")
	}
}

func TestErrorIsMatchesMessageWhenTargetSetsOne(t *testing.T) {
	bookMissing := &Error{Kind: KindNotFound, Message: "book not found"}
	authorMissing := &Error{Kind: KindNotFound, Message: "author not found"}
	err := fmt.Errorf("get book: %w", bookMissing)

	if !errors.Is(err, bookMissing) {
		t.Error("Expected error to match its own sentinel")
	}
	if errors.Is(err, authorMissing) {
		t.Error("Expected error not to match a sentinel with another message")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected error to match the kind sentinel")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
		{"validation", NewValidationError("bad"), KindValidation},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFoundError("missing")), KindNotFound},
		{"persistence", NewPersistenceError(ReasonConflict, "conflict", nil), KindPersistence},
		{"configuration", NewConfigurationError("no key", nil), KindConfiguration},
		{"authorization", NewAuthorizationError("nope"), KindAuthorization},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	want := map[Kind]string{
		KindAuthentication: "AuthenticationError",
		KindAuthorization:  "AuthorizationError",
		KindValidation:     "ValidationError",
		KindNotFound:       "NotFoundError",
		KindPersistence:    "PersistenceError",
		KindConfiguration:  "ConfigurationError",
		KindInternal:       "InternalError",
	}
	for kind, name := range want {
		if kind.String() != name {
			t.Errorf("Expected %s, got %s", name, kind.String())
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewPersistenceError(ReasonFailure, "storage failure", errors.New("connection reset"))
	want := "PersistenceError(failure): storage failure: connection reset"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
