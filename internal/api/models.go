package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	// Token is the signed bearer token
	Token string `json:"token"`

	// Expiry is when the token stops being accepted
	Expiry time.Time `json:"expiry"`
}

// BookRequest is the payload for creating or updating a book.
type BookRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Pages       int    `json:"pages"       validate:"gt=0"`
}

// AuthorRequest is the payload for creating an author, optionally with books.
type AuthorRequest struct {
	Name       string        `json:"name"        validate:"required,max=100"`
	BirthDate  string        `json:"birthDate"   validate:"required,datetime=2006-01-02"`
	BirthPlace string        `json:"birthPlace"  validate:"max=100"`
	Email      string        `json:"email"       validate:"omitempty,email,max=255"`
	Books      []BookRequest `json:"books"       validate:"max=100,dive"`
}

// BookResponse is the wire representation of a book.
type BookResponse struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"authorId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Pages       int       `json:"pages"`
}

// AuthorResponse is the wire representation of an author.
type AuthorResponse struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	BirthDate  string         `json:"birthDate"`
	BirthPlace string         `json:"birthPlace"`
	Email      string         `json:"email,omitempty"`
	Books      []BookResponse `json:"books,omitempty"`
}

// AuthorPage is the paged author list returned from version 2.0 on.
type AuthorPage struct {
	Items      []AuthorResponse `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalCount int              `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
}

func bookResponse(b domain.Book) BookResponse {
	return BookResponse{
		ID:          b.ID,
		AuthorID:    b.AuthorID,
		Title:       b.Title,
		Description: b.Description,
		Pages:       b.Pages,
	}
}

func bookResponses(books []domain.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, bookResponse(b))
	}
	return out
}

func authorResponse(a domain.Author) AuthorResponse {
	return AuthorResponse{
		ID:         a.ID,
		Name:       a.Name,
		BirthDate:  a.BirthDate.Format(DateLayout),
		BirthPlace: a.BirthPlace,
		Email:      a.Email,
	}
}

func authorResponses(authors []domain.Author) []AuthorResponse {
	out := make([]AuthorResponse, 0, len(authors))
	for _, a := range authors {
		out = append(out, authorResponse(a))
	}
	return out
}

// invalidEntity turns a domain validation failure into a ValidationError.
func invalidEntity(err error) error {
	return &domain.Error{Kind: domain.KindValidation, Message: err.Error(), Err: err}
}
