package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/library-api/internal/domain"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is the PostgreSQL error code for foreign key violations
	foreignKeyViolationCode = "23503"

	// checkViolationCode is the PostgreSQL error code for check constraint violations
	checkViolationCode = "23514"

	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"
)

// MapError maps a database error to a domain PersistenceError. Constraint
// violations become conflicts, context errors become cancellations and
// everything else is a failure. The original error is kept as the cause for
// logging; the message is safe to return to callers.
// Errors that already are domain errors pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewPersistenceError(domain.ReasonCanceled, "the operation was canceled", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return domain.NewPersistenceError(domain.ReasonConflict, "the resource already exists", err)
		case foreignKeyViolationCode:
			return domain.NewPersistenceError(domain.ReasonConflict, "a related resource does not exist", err)
		case checkViolationCode, notNullViolationCode:
			return domain.NewPersistenceError(domain.ReasonConflict, "the resource violates a data constraint", err)
		}
	}

	return domain.NewPersistenceError(domain.ReasonFailure, "the database operation failed", err)
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected examines the number of rows affected by an UPDATE or
// DELETE. If no rows were affected it returns notFound.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}

// validationError converts an entity validation failure into a domain
// ValidationError.
func validationError(err error) error {
	return &domain.Error{Kind: domain.KindValidation, Message: err.Error(), Err: err}
}
