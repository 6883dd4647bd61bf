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

// RoleRepository implements store.RoleRepository inside a RepositoryWrapper.
type RoleRepository struct {
	w      *RepositoryWrapper
	logger *slog.Logger
}

// Ensure RoleRepository implements store.RoleRepository interface
var _ store.RoleRepository = (*RoleRepository)(nil)

// GetByName implements store.RoleRepository.GetByName
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return nil, err
	}

	var role domain.Role
	err = db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRoleNotFound
		}
		log.Error("failed to get role", slog.String("error", redact.Error(err)), slog.String("role", name))
		return nil, MapError(err)
	}
	return &role, nil
}

// ListByUser implements store.RoleRepository.ListByUser
func (r *RoleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Role, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	db, err := r.w.executor(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list user roles",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, MapError(err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return roles, nil
}
