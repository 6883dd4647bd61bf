package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWrapper(t *testing.T) (*RepositoryWrapper, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepositoryWrapper(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func testAuthor(t *testing.T) *domain.Author {
	t.Helper()
	a, err := domain.NewAuthor("Ursula K. Le Guin", time.Date(1929, 10, 21, 0, 0, 0, 0, time.UTC), "Berkeley", "ursula@example.com")
	require.NoError(t, err)
	return a
}

func TestRepositoryWrapper_MemoizesRepositories(t *testing.T) {
	w, mock := newTestWrapper(t)

	assert.Same(t, w.Users(), w.Users())
	assert.Same(t, w.Roles(), w.Roles())
	assert.Same(t, w.Authors(), w.Authors())
	assert.Same(t, w.Books(), w.Books())

	// Building repositories touches no database state
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWrapper_SaveCommitsOneTransaction(t *testing.T) {
	w, mock := newTestWrapper(t)
	ctx := context.Background()

	author := testAuthor(t)
	book, err := domain.NewBook(author.ID, "A Wizard of Earthsea", "", 183)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO authors").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO books").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, w.Authors().Create(ctx, author))
	require.NoError(t, w.Books().Create(ctx, book))
	require.NoError(t, w.Save(ctx))

	// A second save has nothing to commit
	require.NoError(t, w.Save(ctx))
	// Rollback after commit is a no-op
	require.NoError(t, w.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWrapper_SaveWithoutWorkIsNoop(t *testing.T) {
	w, mock := newTestWrapper(t)

	require.NoError(t, w.Save(context.Background()))
	require.NoError(t, w.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWrapper_SaveWithDoneContextRollsBack(t *testing.T) {
	w, mock := newTestWrapper(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO authors").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	require.NoError(t, w.Authors().Create(context.Background(), testAuthor(t)))

	abandoned, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Save(abandoned)
	assert.ErrorIs(t, err, domain.ErrPersistenceCanceled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWrapper_RollbackDiscardsWork(t *testing.T) {
	w, mock := newTestWrapper(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM authors").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	require.NoError(t, w.Authors().Delete(ctx, uuid.New()))
	require.NoError(t, w.Rollback())

	// Nothing left to commit
	require.NoError(t, w.Save(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWrapper_ConflictMapping(t *testing.T) {
	w, mock := newTestWrapper(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO authors").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "authors_pkey"})
	mock.ExpectRollback()

	err := w.Authors().Create(ctx, testAuthor(t))
	assert.ErrorIs(t, err, domain.ErrPersistenceConflict)
	require.NoError(t, w.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWrapper_CommitFailure(t *testing.T) {
	w, mock := newTestWrapper(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM authors").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	require.NoError(t, w.Authors().Delete(ctx, uuid.New()))
	err := w.Save(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.NotErrorIs(t, err, domain.ErrPersistenceConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWrapper_BeginFailure(t *testing.T) {
	w, mock := newTestWrapper(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := w.Authors().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}
