package domain

import "github.com/google/uuid"

// Well-known role names seeded by the initial migration.
const (
	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

// Role is static reference data attached to users.
type Role struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
