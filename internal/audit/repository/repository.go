package repository

import (
	"context"

	"session-token-service/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.SysLog, error)
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.SysLog, error)
	Create(ctx context.Context, l *domain.SysLog) error
}
