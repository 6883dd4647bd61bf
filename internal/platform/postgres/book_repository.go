package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/redact"
	"github.com/phrazzld/library-api/internal/store"
)

// BookRepository implements store.BookRepository inside a RepositoryWrapper.
type BookRepository struct {
	w      *RepositoryWrapper
	logger *slog.Logger
}

// Ensure BookRepository implements store.BookRepository interface
var _ store.BookRepository = (*BookRepository)(nil)

const selectBookColumns = `
	SELECT id, author_id, title, description, pages, created_at, updated_at
	FROM books
`

func scanBook(row rowScanner) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(&b.ID, &b.AuthorID, &b.Title, &b.Description, &b.Pages, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByAuthor implements store.BookRepository.ListByAuthor
func (r *BookRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectBookColumns+` WHERE author_id = $1 ORDER BY title, id`, authorID)
	if err != nil {
		log.Error("failed to list books",
			slog.String("error", redact.Error(err)),
			slog.String("author_id", authorID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	books := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, MapError(err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return books, nil
}

// GetByID implements store.BookRepository.GetByID
func (r *BookRepository) GetByID(ctx context.Context, authorID, bookID uuid.UUID) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return nil, err
	}

	b, err := scanBook(db.QueryRowContext(ctx,
		selectBookColumns+` WHERE author_id = $1 AND id = $2`, authorID, bookID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("book not found",
				slog.String("author_id", authorID.String()),
				slog.String("book_id", bookID.String()))
			return nil, store.ErrBookNotFound
		}
		log.Error("failed to get book",
			slog.String("error", redact.Error(err)),
			slog.String("book_id", bookID.String()))
		return nil, MapError(err)
	}
	return b, nil
}

// Create implements store.BookRepository.Create
func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if err := book.Validate(); err != nil {
		log.Warn("book validation failed during create",
			slog.String("error", err.Error()),
			slog.String("book_id", book.ID.String()))
		return validationError(err)
	}

	db, err := r.w.executor(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO books (id, author_id, title, description, pages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = db.ExecContext(ctx, query,
		book.ID,
		book.AuthorID,
		book.Title,
		book.Description,
		book.Pages,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create book",
			slog.String("error", redact.Error(err)),
			slog.String("book_id", book.ID.String()),
			slog.String("author_id", book.AuthorID.String()))
		return MapError(err)
	}

	log.Debug("book created",
		slog.String("book_id", book.ID.String()),
		slog.String("author_id", book.AuthorID.String()))
	return nil
}

// Update implements store.BookRepository.Update
func (r *BookRepository) Update(ctx context.Context, book *domain.Book) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if err := book.Validate(); err != nil {
		return validationError(err)
	}

	db, err := r.w.executor(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE books
		SET title = $3, description = $4, pages = $5, updated_at = $6
		WHERE author_id = $1 AND id = $2
	`
	result, err := db.ExecContext(ctx, query,
		book.AuthorID,
		book.ID,
		book.Title,
		book.Description,
		book.Pages,
		book.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update book",
			slog.String("error", redact.Error(err)),
			slog.String("book_id", book.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrBookNotFound)
}

// Delete implements store.BookRepository.Delete
func (r *BookRepository) Delete(ctx context.Context, authorID, bookID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM books WHERE author_id = $1 AND id = $2`, authorID, bookID)
	if err != nil {
		log.Error("failed to delete book",
			slog.String("error", redact.Error(err)),
			slog.String("book_id", bookID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrBookNotFound)
}
