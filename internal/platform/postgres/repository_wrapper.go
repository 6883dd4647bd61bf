package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/platform/logger"
	"github.com/phrazzld/library-api/internal/redact"
	"github.com/phrazzld/library-api/internal/store"
)

// RepositoryWrapper implements store.RepositoryWrapper over PostgreSQL.
//
// Repositories are built lazily and memoized. The first statement any of
// them runs begins a transaction with the caller's context; every later
// statement joins it. Save commits, Rollback discards. A wrapper belongs to
// one request and is not safe for concurrent use.
type RepositoryWrapper struct {
	db     store.TxBeginner
	logger *slog.Logger
	tx     *sql.Tx

	users   *UserRepository
	roles   *RoleRepository
	authors *AuthorRepository
	books   *BookRepository
}

// Ensure RepositoryWrapper implements store.RepositoryWrapper interface
var _ store.RepositoryWrapper = (*RepositoryWrapper)(nil)

// NewRepositoryWrapper creates a unit of work over db.
// If logger is nil, a default logger will be used.
func NewRepositoryWrapper(db store.TxBeginner, logger *slog.Logger) *RepositoryWrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositoryWrapper{
		db:     db,
		logger: logger.With(slog.String("component", "unit_of_work")),
	}
}

// NewRepositoryWrapperFactory returns a function producing a fresh wrapper
// per call, for the pipeline to open one per request.
func NewRepositoryWrapperFactory(db store.TxBeginner, logger *slog.Logger) func() store.RepositoryWrapper {
	return func() store.RepositoryWrapper {
		return NewRepositoryWrapper(db, logger)
	}
}

// Users implements store.RepositoryWrapper.
func (w *RepositoryWrapper) Users() store.UserRepository {
	if w.users == nil {
		w.users = &UserRepository{w: w, logger: w.logger.With(slog.String("repository", "users"))}
	}
	return w.users
}

// Roles implements store.RepositoryWrapper.
func (w *RepositoryWrapper) Roles() store.RoleRepository {
	if w.roles == nil {
		w.roles = &RoleRepository{w: w, logger: w.logger.With(slog.String("repository", "roles"))}
	}
	return w.roles
}

// Authors implements store.RepositoryWrapper.
func (w *RepositoryWrapper) Authors() store.AuthorRepository {
	if w.authors == nil {
		w.authors = &AuthorRepository{w: w, logger: w.logger.With(slog.String("repository", "authors"))}
	}
	return w.authors
}

// Books implements store.RepositoryWrapper.
func (w *RepositoryWrapper) Books() store.BookRepository {
	if w.books == nil {
		w.books = &BookRepository{w: w, logger: w.logger.With(slog.String("repository", "books"))}
	}
	return w.books
}

// executor returns the open transaction, beginning one if needed.
func (w *RepositoryWrapper) executor(ctx context.Context) (store.DBTX, error) {
	if w.tx != nil {
		return w.tx, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		logger.FromContextOrDefault(ctx, w.logger).Error("failed to begin transaction",
			slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	w.tx = tx
	return tx, nil
}

// Save implements store.RepositoryWrapper.
func (w *RepositoryWrapper) Save(ctx context.Context) error {
	if w.tx == nil {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, w.logger)
	tx := w.tx
	w.tx = nil

	if err := ctx.Err(); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to roll back abandoned unit of work",
				slog.String("error", redact.Error(rbErr)))
		}
		log.Debug("unit of work not committed: request abandoned")
		return domain.NewPersistenceError(domain.ReasonCanceled, "the operation was canceled", err)
	}

	if err := tx.Commit(); err != nil {
		mapped := MapError(err)
		log.Error("failed to commit unit of work",
			slog.String("error", redact.Error(err)))
		return mapped
	}

	log.Debug("unit of work committed")
	return nil
}

// Rollback implements store.RepositoryWrapper.
func (w *RepositoryWrapper) Rollback() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil

	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		w.logger.Error("failed to roll back unit of work",
			slog.String("error", redact.Error(err)))
		return MapError(err)
	}
	return nil
}
