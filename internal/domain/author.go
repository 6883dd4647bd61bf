package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyAuthorName   = errors.New("author name cannot be empty")
	ErrAuthorNameTooLong = errors.New("author name must be at most 100 characters long")
	ErrBirthDateInFuture = errors.New("birth date cannot be in the future")
)

// Author is the aggregate root that books belong to.
type Author struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	BirthDate  time.Time `json:"birth_date"`
	BirthPlace string    `json:"birth_place"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewAuthor creates a new Author with a fresh ID and timestamps.
// Returns an error if validation fails.
func NewAuthor(name string, birthDate time.Time, birthPlace, email string) (*Author, error) {
	now := time.Now().UTC()
	a := &Author{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(name),
		BirthDate:  birthDate.UTC(),
		BirthPlace: strings.TrimSpace(birthPlace),
		Email:      strings.TrimSpace(email),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks if the Author has valid data.
func (a *Author) Validate() error {
	if a.ID == uuid.Nil {
		return ErrInvalidID
	}
	if a.Name == "" {
		return ErrEmptyAuthorName
	}
	if len(a.Name) > 100 {
		return ErrAuthorNameTooLong
	}
	if a.BirthDate.After(time.Now().UTC()) {
		return ErrBirthDateInFuture
	}
	return nil
}
