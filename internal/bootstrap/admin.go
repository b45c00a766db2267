// Package bootstrap creates the initial admin account on an empty installation.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/user/domain"
	"auth-service/internal/user/repository"
)

// AdminConfig is the admin account to create. Email and Password are required for bootstrap to run.
type AdminConfig struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserStore is the subset of the user repository bootstrap needs.
type UserStore interface {
	GetFirstByRole(ctx context.Context, role domain.Role) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// PasswordHasher hashes the admin password. Satisfied by *security.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Result reports what EnsureAdmin did.
type Result int

const (
	Skipped Result = iota
	AlreadyExists
	Created
)

func (r Result) String() string {
	switch r {
	case AlreadyExists:
		return "already_exists"
	case Created:
		return "created"
	default:
		return "skipped"
	}
}

// EnsureAdmin creates an admin user from cfg unless credentials are missing or an admin already exists.
// The password is stored hashed.
func EnsureAdmin(ctx context.Context, logger *slog.Logger, users UserStore, hasher PasswordHasher, cfg AdminConfig) (Result, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		logger.WarnContext(ctx, "admin credentials not provided, skipping admin creation")
		return Skipped, nil
	}
	existing, err := users.GetFirstByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return Skipped, fmt.Errorf("bootstrap: look up admin: %w", err)
	}
	if existing != nil {
		logger.InfoContext(ctx, "admin user already exists", "user_id", existing.ID)
		return AlreadyExists, nil
	}
	hashed, err := hasher.Hash(cfg.Password)
	if err != nil {
		return Skipped, fmt.Errorf("bootstrap: hash password: %w", err)
	}
	now := time.Now().UTC()
	admin := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    firstNonEmpty(cfg.FirstName, "System"),
		LastName:     firstNonEmpty(cfg.LastName, "Admin"),
		Email:        email,
		PasswordHash: hashed,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return Skipped, fmt.Errorf("bootstrap: %s is already used by a non-admin account", email)
		}
		return Skipped, fmt.Errorf("bootstrap: create admin: %w", err)
	}
	logger.InfoContext(ctx, "admin user created", "user_id", admin.ID, "email", admin.Email)
	return Created, nil
}

func firstNonEmpty(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
