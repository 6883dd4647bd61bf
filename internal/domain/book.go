package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyBookTitle   = errors.New("book title cannot be empty")
	ErrInvalidPageCount = errors.New("page count must be positive")
	ErrEmptyAuthorID    = errors.New("author ID cannot be empty")
)

// Book belongs to exactly one Author.
type Book struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Pages       int       `json:"pages"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewBook creates a new Book for the given author.
func NewBook(authorID uuid.UUID, title, description string, pages int) (*Book, error) {
	now := time.Now().UTC()
	b := &Book{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Pages:       pages,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks if the Book has valid data.
func (b *Book) Validate() error {
	if b.ID == uuid.Nil {
		return ErrInvalidID
	}
	if b.AuthorID == uuid.Nil {
		return ErrEmptyAuthorID
	}
	if b.Title == "" {
		return ErrEmptyBookTitle
	}
	if b.Pages <= 0 {
		return ErrInvalidPageCount
	}
	return nil
}

// Revise replaces the mutable fields of the book and bumps UpdatedAt.
func (b *Book) Revise(title, description string, pages int) error {
	revised := *b
	revised.Title = strings.TrimSpace(title)
	revised.Description = strings.TrimSpace(description)
	revised.Pages = pages
	if err := revised.Validate(); err != nil {
		return err
	}
	revised.UpdatedAt = time.Now().UTC()
	*b = revised
	return nil
}
