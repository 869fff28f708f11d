package repository

import (
	"context"

	identitydomain "session-token-service/internal/identity/domain"
	"session-token-service/internal/user/domain"
)

// Repository defines read access to the user directory.
type Repository interface {
	// GetByUsername returns the user, or nil if no user has that username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// ListPermissionsByUserID returns the permissions granted to the user, ordered by id.
	ListPermissionsByUserID(ctx context.Context, userID string) ([]identitydomain.Permission, error)
}
