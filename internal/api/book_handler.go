package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/pipeline"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/store"
)

// BookHandler serves the endpoints for an author's books.
type BookHandler struct {
	logger *slog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(logger *slog.Logger) *BookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookHandler{logger: logger.With(slog.String("component", "book_handler"))}
}

// List returns every book of an author.
func (h *BookHandler) List(req *pipeline.Request) (*pipeline.Response, error) {
	authorID, err := req.UUIDParam("authorId")
	if err != nil {
		return nil, err
	}
	ctx := req.Context()
	if err := requireAuthor(ctx, req.Repos, authorID); err != nil {
		return nil, err
	}
	books, err := req.Repos.Books().ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusOK, bookResponses(books))
}

// Get returns one book of an author.
func (h *BookHandler) Get(req *pipeline.Request) (*pipeline.Response, error) {
	authorID, bookID, err := bookParams(req)
	if err != nil {
		return nil, err
	}
	book, err := req.Repos.Books().GetByID(req.Context(), authorID, bookID)
	if err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusOK, bookResponse(*book))
}

// Create adds a book to an existing author.
func (h *BookHandler) Create(req *pipeline.Request) (*pipeline.Response, error) {
	authorID, err := req.UUIDParam("authorId")
	if err != nil {
		return nil, err
	}
	var body BookRequest
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	ctx := req.Context()
	if err := requireAuthor(ctx, req.Repos, authorID); err != nil {
		return nil, err
	}
	book, err := domain.NewBook(authorID, body.Title, body.Description, body.Pages)
	if err != nil {
		return nil, invalidEntity(err)
	}
	if err := req.Repos.Books().Create(ctx, book); err != nil {
		return nil, err
	}
	if err := req.Repos.Save(ctx); err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, h.logger).Info("book created",
		slog.String("author_id", authorID.String()),
		slog.String("book_id", book.ID.String()))
	return pipeline.Created(fmt.Sprintf("/api/authors/%s/books/%s", authorID, book.ID), bookResponse(*book))
}

// Update replaces the title, description and page count of a book.
func (h *BookHandler) Update(req *pipeline.Request) (*pipeline.Response, error) {
	authorID, bookID, err := bookParams(req)
	if err != nil {
		return nil, err
	}
	var body BookRequest
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	ctx := req.Context()
	book, err := req.Repos.Books().GetByID(ctx, authorID, bookID)
	if err != nil {
		return nil, err
	}
	if err := book.Revise(body.Title, body.Description, body.Pages); err != nil {
		return nil, invalidEntity(err)
	}
	if err := req.Repos.Books().Update(ctx, book); err != nil {
		return nil, err
	}
	if err := req.Repos.Save(ctx); err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusOK, bookResponse(*book))
}

// Delete removes one book of an author.
func (h *BookHandler) Delete(req *pipeline.Request) (*pipeline.Response, error) {
	authorID, bookID, err := bookParams(req)
	if err != nil {
		return nil, err
	}
	ctx := req.Context()
	if err := req.Repos.Books().Delete(ctx, authorID, bookID); err != nil {
		return nil, err
	}
	if err := req.Repos.Save(ctx); err != nil {
		return nil, err
	}
	logger.FromContextOrDefault(ctx, h.logger).Info("book deleted",
		slog.String("author_id", authorID.String()),
		slog.String("book_id", bookID.String()))
	return pipeline.NoContent(), nil
}

func bookParams(req *pipeline.Request) (uuid.UUID, uuid.UUID, error) {
	authorID, err := req.UUIDParam("authorId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	bookID, err := req.UUIDParam("bookId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return authorID, bookID, nil
}

func requireAuthor(ctx context.Context, repos store.RepositoryWrapper, id uuid.UUID) error {
	exists, err := repos.Authors().Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrAuthorNotFound
	}
	return nil
}
