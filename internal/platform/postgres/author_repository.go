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

// AuthorRepository implements store.AuthorRepository inside a RepositoryWrapper.
type AuthorRepository struct {
	w      *RepositoryWrapper
	logger *slog.Logger
}

// Ensure AuthorRepository implements store.AuthorRepository interface
var _ store.AuthorRepository = (*AuthorRepository)(nil)

const selectAuthorColumns = `
	SELECT id, name, birth_date, birth_place, email, created_at, updated_at
	FROM authors
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row rowScanner) (*domain.Author, error) {
	var a domain.Author
	err := row.Scan(&a.ID, &a.Name, &a.BirthDate, &a.BirthPlace, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List implements store.AuthorRepository.List
func (r *AuthorRepository) List(ctx context.Context, page store.Page) ([]domain.Author, int, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)
	page = page.Normalize()

	db, err := r.w.executor(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&total); err != nil {
		log.Error("failed to count authors", slog.String("error", redact.Error(err)))
		return nil, 0, MapError(err)
	}

	rows, err := db.QueryContext(ctx,
		selectAuthorColumns+` ORDER BY name, id LIMIT $1 OFFSET $2`,
		page.Size, page.Offset())
	if err != nil {
		log.Error("failed to list authors", slog.String("error", redact.Error(err)))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	authors := []domain.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		authors = append(authors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	log.Debug("listed authors",
		slog.Int("page", page.Number),
		slog.Int("count", len(authors)),
		slog.Int("total", total))
	return authors, total, nil
}

// GetByID implements store.AuthorRepository.GetByID
func (r *AuthorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return nil, err
	}

	a, err := scanAuthor(db.QueryRowContext(ctx, selectAuthorColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("author not found", slog.String("author_id", id.String()))
			return nil, store.ErrAuthorNotFound
		}
		log.Error("failed to get author",
			slog.String("error", redact.Error(err)),
			slog.String("author_id", id.String()))
		return nil, MapError(err)
	}
	return a, nil
}

// Exists implements store.AuthorRepository.Exists
func (r *AuthorRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	db, err := r.w.executor(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM authors WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Error("failed to check author existence",
			slog.String("error", redact.Error(err)),
			slog.String("author_id", id.String()))
		return false, MapError(err)
	}
	return exists, nil
}

// Create implements store.AuthorRepository.Create
func (r *AuthorRepository) Create(ctx context.Context, author *domain.Author) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if err := author.Validate(); err != nil {
		log.Warn("author validation failed during create",
			slog.String("error", err.Error()),
			slog.String("author_id", author.ID.String()))
		return validationError(err)
	}

	db, err := r.w.executor(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO authors (id, name, birth_date, birth_place, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = db.ExecContext(ctx, query,
		author.ID,
		author.Name,
		author.BirthDate,
		author.BirthPlace,
		author.Email,
		author.CreatedAt,
		author.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create author",
			slog.String("error", redact.Error(err)),
			slog.String("author_id", author.ID.String()))
		return MapError(err)
	}

	log.Debug("author created", slog.String("author_id", author.ID.String()))
	return nil
}

// Update implements store.AuthorRepository.Update
func (r *AuthorRepository) Update(ctx context.Context, author *domain.Author) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if err := author.Validate(); err != nil {
		return validationError(err)
	}

	db, err := r.w.executor(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE authors
		SET name = $2, birth_date = $3, birth_place = $4, email = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := db.ExecContext(ctx, query,
		author.ID,
		author.Name,
		author.BirthDate,
		author.BirthPlace,
		author.Email,
		author.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update author",
			slog.String("error", redact.Error(err)),
			slog.String("author_id", author.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrAuthorNotFound)
}

// Delete implements store.AuthorRepository.Delete
func (r *AuthorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete author",
			slog.String("error", redact.Error(err)),
			slog.String("author_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrAuthorNotFound)
}
