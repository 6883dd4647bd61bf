package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/domain"
)

// Paging defaults for list operations.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Page selects a window of a listing. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}

// UserRepository reads and updates users. Users are never created or deleted here.
type UserRepository interface {
	// GetByID retrieves a user by ID, with roles loaded.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsername retrieves a user by username, with roles loaded.
	// Returns ErrUserNotFound if the user does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update persists the mutable fields of user (last login, updated_at).
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error
}

// RoleRepository reads the static role reference data.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Role, error)
}

// AuthorRepository manages authors.
type AuthorRepository interface {
	// List returns one page of authors ordered by name, and the total count.
	List(ctx context.Context, page Page) ([]domain.Author, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, author *domain.Author) error
	Update(ctx context.Context, author *domain.Author) error
	// Delete removes the author and, by cascade, the author's books.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookRepository manages books. Every operation is scoped to an author.
type BookRepository interface {
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]domain.Book, error)
	GetByID(ctx context.Context, authorID, bookID uuid.UUID) (*domain.Book, error)
	Create(ctx context.Context, book *domain.Book) error
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, authorID, bookID uuid.UUID) error
}

// RepositoryWrapper is a unit of work: one repository per aggregate type,
// all sharing one transaction. A wrapper serves a single request and is not
// safe for concurrent use.
type RepositoryWrapper interface {
	// Accessors return the same repository instance on every call.
	Users() UserRepository
	Roles() RoleRepository
	Authors() AuthorRepository
	Books() BookRepository

	// Save commits the pending changes. Calling Save with nothing pending,
	// including a second time, does nothing.
	Save(ctx context.Context) error

	// Rollback discards uncommitted changes. It is safe to call at any time.
	Rollback() error
}
