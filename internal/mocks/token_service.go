package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/service/auth"
)

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	// IssueTokenFn allows test cases to mock the IssueToken behavior
	IssueTokenFn func(ctx context.Context, subject string, roles []string) (*auth.Token, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, raw string) (*auth.Principal, error)

	// Principals maps raw token values to the principal the default
	// ValidateToken returns. Unknown tokens are malformed.
	Principals map[string]*auth.Principal

	mu            sync.Mutex
	IssueCalls    int
	ValidateCalls int
}

var _ auth.TokenService = (*MockTokenService)(nil)

// IssueToken implements the auth.TokenService interface
func (m *MockTokenService) IssueToken(ctx context.Context, subject string, roles []string) (*auth.Token, error) {
	m.mu.Lock()
	m.IssueCalls++
	m.mu.Unlock()

	if m.IssueTokenFn != nil {
		return m.IssueTokenFn(ctx, subject, roles)
	}
	return &auth.Token{
		Value:     "mock-token-for-" + subject,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}, nil
}

// ValidateToken implements the auth.TokenService interface
func (m *MockTokenService) ValidateToken(ctx context.Context, raw string) (*auth.Principal, error) {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()

	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, raw)
	}
	if p, ok := m.Principals[raw]; ok {
		return p, nil
	}
	return nil, domain.NewAuthenticationError(domain.ReasonMalformed, "malformed token", nil)
}
