package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/pipeline"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/store"
)

// Query parameters of the author list.
const (
	PageQueryParam     = "page"
	PageSizeQueryParam = "pageSize"
)

// AuthorHandler serves the author endpoints.
type AuthorHandler struct {
	logger *slog.Logger
}

// NewAuthorHandler creates a new AuthorHandler.
func NewAuthorHandler(logger *slog.Logger) *AuthorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorHandler{logger: logger.With(slog.String("component", "author_handler"))}
}

// ListV1 returns one page of authors as a plain array.
func (h *AuthorHandler) ListV1(req *pipeline.Request) (*pipeline.Response, error) {
	authors, _, page, err := h.list(req)
	if err != nil {
		return nil, err
	}
	resp, err := pipeline.JSON(http.StatusOK, authorResponses(authors))
	if err != nil {
		return nil, err
	}
	resp.Header.Set("X-Page", strconv.Itoa(page.Number))
	return resp, nil
}

// ListV2 returns one page of authors wrapped in a paging envelope.
func (h *AuthorHandler) ListV2(req *pipeline.Request) (*pipeline.Response, error) {
	authors, total, page, err := h.list(req)
	if err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusOK, AuthorPage{
		Items:      authorResponses(authors),
		Page:       page.Number,
		PageSize:   page.Size,
		TotalCount: total,
		TotalPages: (total + page.Size - 1) / page.Size,
	})
}

func (h *AuthorHandler) list(req *pipeline.Request) ([]domain.Author, int, store.Page, error) {
	page, err := pageFromQuery(req)
	if err != nil {
		return nil, 0, store.Page{}, err
	}
	authors, total, err := req.Repos.Authors().List(req.Context(), page)
	if err != nil {
		return nil, 0, store.Page{}, err
	}
	return authors, total, page, nil
}

// pageFromQuery reads the paging parameters. Absent values take defaults;
// oversized pages are clamped.
func pageFromQuery(req *pipeline.Request) (store.Page, error) {
	q := req.HTTP.URL.Query()
	var page store.Page
	var fields []domain.FieldError

	if raw := q.Get(PageQueryParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, domain.FieldError{Field: PageQueryParam, Message: "must be a positive integer"})
		}
		page.Number = n
	}
	if raw := q.Get(PageSizeQueryParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, domain.FieldError{Field: PageSizeQueryParam, Message: "must be a positive integer"})
		}
		page.Size = n
	}
	if len(fields) > 0 {
		return store.Page{}, domain.NewValidationError("invalid paging parameters", fields...)
	}
	return page.Normalize(), nil
}

// Get returns a single author.
func (h *AuthorHandler) Get(req *pipeline.Request) (*pipeline.Response, error) {
	id, err := req.UUIDParam("authorId")
	if err != nil {
		return nil, err
	}
	author, err := req.Repos.Authors().GetByID(req.Context(), id)
	if err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusOK, authorResponse(*author))
}

// Create stores a new author together with any nested books. Everything is
// saved in one unit of work, so either all of it is stored or none.
func (h *AuthorHandler) Create(req *pipeline.Request) (*pipeline.Response, error) {
	var body AuthorRequest
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	birthDate, err := time.Parse(DateLayout, body.BirthDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid birth date",
			domain.FieldError{Field: "birthDate", Message: "must be a date in YYYY-MM-DD format"})
	}
	author, err := domain.NewAuthor(body.Name, birthDate, body.BirthPlace, body.Email)
	if err != nil {
		return nil, invalidEntity(err)
	}

	books := make([]domain.Book, 0, len(body.Books))
	for _, b := range body.Books {
		book, err := domain.NewBook(author.ID, b.Title, b.Description, b.Pages)
		if err != nil {
			return nil, invalidEntity(err)
		}
		books = append(books, *book)
	}

	ctx := req.Context()
	if err := req.Repos.Authors().Create(ctx, author); err != nil {
		return nil, err
	}
	for i := range books {
		if err := req.Repos.Books().Create(ctx, &books[i]); err != nil {
			return nil, err
		}
	}
	if err := req.Repos.Save(ctx); err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, h.logger).Info("author created",
		slog.String("author_id", author.ID.String()),
		slog.Int("books", len(books)))

	resp := authorResponse(*author)
	resp.Books = bookResponses(books)
	return pipeline.Created(fmt.Sprintf("/api/authors/%s", author.ID), resp)
}

// Delete removes an author and, by cascade, the author's books.
func (h *AuthorHandler) Delete(req *pipeline.Request) (*pipeline.Response, error) {
	id, err := req.UUIDParam("authorId")
	if err != nil {
		return nil, err
	}
	ctx := req.Context()
	if err := req.Repos.Authors().Delete(ctx, id); err != nil {
		return nil, err
	}
	if err := req.Repos.Save(ctx); err != nil {
		return nil, err
	}
	logger.FromContextOrDefault(ctx, h.logger).Info("author deleted", slog.String("author_id", id.String()))
	return pipeline.NoContent(), nil
}
