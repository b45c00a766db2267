package repository

import (
	"context"
	"errors"

	"auth-service/internal/user/domain"
)

// ErrEmailTaken is returned by Create when another user already owns the email.
var ErrEmailTaken = errors.New("email already taken")

// ListFilter narrows List. An empty TenantID lists every tenant.
type ListFilter struct {
	TenantID string
	Limit    int
	Offset   int
}

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByEmailWithPassword is GetByEmail plus the stored password hash; only login uses it.
	GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error)
	GetFirstByRole(ctx context.Context, role domain.Role) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	List(ctx context.Context, f ListFilter) ([]*domain.User, int, error)
}
