package mocks

import (
	"sync"

	"github.com/phrazzld/library-api/internal/domain"
)

// MockPasswordVerifier is an auth.PasswordVerifier backed by a table of
// stored hash to accepted password. It avoids bcrypt cost in handler tests.
type MockPasswordVerifier struct {
	mu sync.Mutex

	// Accepted maps a stored password hash to the plaintext it accepts.
	Accepted map[string]string

	// Err, when set, is returned from every Compare call.
	Err error

	// ComparedHashes records the hash passed to each Compare call.
	ComparedHashes []string
}

// NewMockPasswordVerifier returns a verifier that accepts password for hash.
func NewMockPasswordVerifier(hash, password string) *MockPasswordVerifier {
	return &MockPasswordVerifier{Accepted: map[string]string{hash: password}}
}

// Compare implements auth.PasswordVerifier.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ComparedHashes = append(m.ComparedHashes, hashedPassword)
	if m.Err != nil {
		return m.Err
	}
	if want, ok := m.Accepted[hashedPassword]; ok && want == password {
		return nil
	}
	return domain.NewAuthenticationError(domain.ReasonInvalidCredentials, "password mismatch", nil)
}
