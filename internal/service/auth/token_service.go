package auth

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/phrazzld/library-api/internal/domain"
)

// TokenService issues and validates signed bearer tokens.
type TokenService interface {
	// IssueToken creates a signed token for subject carrying the given roles.
	// Fails with a configuration error when no signing key or lifetime is set.
	IssueToken(ctx context.Context, subject string, roles []string) (*Token, error)

	// ValidateToken verifies signature, issuer, audience and expiry of raw and
	// returns the principal it identifies. Failures are authentication errors
	// whose reason is one of expired, invalid_signature,
	// invalid_issuer_or_audience or malformed.
	ValidateToken(ctx context.Context, raw string) (*Principal, error)
}

// Token is an issued bearer token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Principal is the authenticated identity extracted from a valid token.
type Principal struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string
}

// HasAnyRole reports whether the principal holds at least one of roles.
// An empty role list is always satisfied.
func (p *Principal) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	if p == nil {
		return false
	}
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", domain.NewAuthenticationError(domain.ReasonMissing, "authorization header required", nil)
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", domain.NewAuthenticationError(domain.ReasonMalformed, "invalid authorization format", nil)
	}

	return parts[1], nil
}
