package repository

import (
	"context"

	"auth-service/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByUser returns the user's entries, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.AuditLog, error)
}
