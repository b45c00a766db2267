package repository

import (
	"context"
	"time"

	"auth-service/internal/refreshtoken/domain"
)

// Repository defines persistence for refresh token records.
type Repository interface {
	// Create inserts a record for userID and returns it with the database-assigned ID.
	Create(ctx context.Context, userID string, expiresAt time.Time) (*domain.RefreshToken, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.RefreshToken, error)
	// DeleteByID removes the record and reports whether a row was deleted.
	DeleteByID(ctx context.Context, id string) (bool, error)
	// DeleteExpired removes records that expired before now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
