// Package rbac enforces role-based access on an authenticated request, with an optional
// tenant-scope predicate for roles that are confined to one tenant.
package rbac

import (
	"context"
	"errors"
	"slices"

	"auth-service/internal/server/middleware"
)

var (
	// ErrUnauthenticated means no identity is present in the context.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is authenticated but not allowed.
	ErrForbidden = errors.New("insufficient permissions")
)

// Subject is the authenticated caller an authorization decision is made for.
type Subject struct {
	UserID   string
	Role     string
	TenantID string
}

// Resource is what the caller wants to act on. An empty TenantID means "all tenants".
type Resource struct {
	TenantID string
	OwnerID  string
}

// ScopeChecker decides whether subject may act on resource beyond the plain role check.
type ScopeChecker interface {
	Allow(ctx context.Context, subject Subject, resource Resource) (bool, error)
}

// RequireRole ensures the caller is authenticated and has one of the allowed roles.
// Returns the Subject on success; ErrUnauthenticated or ErrForbidden otherwise.
func RequireRole(ctx context.Context, allowed ...string) (Subject, error) {
	id, ok := middleware.IdentityFrom(ctx)
	if !ok || id.UserID == "" {
		return Subject{}, ErrUnauthenticated
	}
	if !slices.Contains(allowed, id.Role) {
		return Subject{}, ErrForbidden
	}
	return Subject{UserID: id.UserID, Role: id.Role, TenantID: id.TenantID}, nil
}

// RequireScope runs checker for subject on resource. A nil checker allows everything the role check allowed.
// Checker failures are returned as-is so callers can tell them apart from a denial.
func RequireScope(ctx context.Context, checker ScopeChecker, subject Subject, resource Resource) error {
	if checker == nil {
		return nil
	}
	ok, err := checker.Allow(ctx, subject, resource)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
