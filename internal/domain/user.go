package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID       = errors.New("user ID cannot be empty")
	ErrEmptyUsername     = errors.New("username cannot be empty")
	ErrEmptyPasswordHash = errors.New("password hash cannot be empty")
)

// User is an account that can log in and receive bearer tokens.
// Users are provisioned outside this service and are never deleted by it.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // Never expose password hash in JSON
	Roles        []Role     `json:"roles"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if u.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	return nil
}

// RoleNames returns the names of the user's roles in their stored order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// RecordLogin stamps a successful login.
func (u *User) RecordLogin(at time.Time) {
	at = at.UTC()
	u.LastLoginAt = &at
	u.UpdatedAt = at
}
