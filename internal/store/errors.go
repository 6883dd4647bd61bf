package store

import (
	"errors"

	"github.com/phrazzld/library-api/internal/domain"
)

// Entity-specific "not found" errors. They match domain.ErrNotFound under
// errors.Is, so the error filter reports them as 404.
var (
	ErrUserNotFound   = &domain.Error{Kind: domain.KindNotFound, Message: "user not found"}
	ErrRoleNotFound   = &domain.Error{Kind: domain.KindNotFound, Message: "role not found"}
	ErrAuthorNotFound = &domain.Error{Kind: domain.KindNotFound, Message: "author not found"}
	ErrBookNotFound   = &domain.Error{Kind: domain.KindNotFound, Message: "book not found"}
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsConflictError reports whether err is a persistence conflict such as a
// unique or foreign key violation.
func IsConflictError(err error) bool {
	return errors.Is(err, domain.ErrPersistenceConflict)
}
