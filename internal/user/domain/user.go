package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the identity record the token subsystem mints credentials for.
// PasswordHash is only populated by lookups that explicitly ask for it.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	TenantID     string // empty when the user has no tenant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleManager:
		return true
	default:
		return false
	}
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if !u.Role.Valid() {
		return errors.New("unknown role")
	}
	if u.Role == RoleManager && u.TenantID == "" {
		return errors.New("manager must belong to a tenant")
	}
	return nil
}
