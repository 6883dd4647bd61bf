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

// UserRepository implements store.UserRepository inside a RepositoryWrapper.
type UserRepository struct {
	w      *RepositoryWrapper
	logger *slog.Logger
}

// Ensure UserRepository implements store.UserRepository interface
var _ store.UserRepository = (*UserRepository)(nil)

const selectUserColumns = `
	SELECT id, username, password_hash, last_login_at, created_at, updated_at
	FROM users
`

// GetByID implements store.UserRepository.GetByID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE id = $1`, id, slog.String("user_id", id.String()))
}

// GetByUsername implements store.UserRepository.GetByUsername
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE username = $1`, username, slog.String("username", username))
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any, attr slog.Attr) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return nil, err
	}

	var user domain.User
	var lastLogin sql.NullTime
	err = db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", attr)
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("error", redact.Error(err)), attr)
		return nil, MapError(err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		user.LastLoginAt = &t
	}

	roles, err := r.w.Roles().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

// Update implements store.UserRepository.Update
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return validationError(err)
	}

	db, err := r.w.executor(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET last_login_at = $2, updated_at = $3
		WHERE id = $1
	`
	var lastLogin sql.NullTime
	if user.LastLoginAt != nil {
		lastLogin = sql.NullTime{Time: *user.LastLoginAt, Valid: true}
	}

	result, err := db.ExecContext(ctx, query, user.ID, lastLogin, user.UpdatedAt)
	if err != nil {
		log.Error("failed to update user",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}
