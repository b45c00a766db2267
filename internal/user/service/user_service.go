package service

import (
	"context"
	"errors"
	"math"

	"auth-service/internal/user/domain"
	"auth-service/internal/user/repository"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
	// MaxPage keeps (page-1)*perPage from overflowing.
	MaxPage = math.MaxInt / MaxPerPage
)

// ErrUserNotFound is returned by Get when no user has the id.
var ErrUserNotFound = errors.New("user not found")

// Page is one page of a user listing.
type Page struct {
	Users       []*domain.User
	Total       int
	CurrentPage int
	PerPage     int
}

// UserRepo is the minimal user repository needed by the user service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, f repository.ListFilter) ([]*domain.User, int, error)
}

// UserService serves read access to user records. It never returns password hashes.
type UserService struct {
	users UserRepo
}

func NewUserService(users UserRepo) *UserService {
	return &UserService{users: users}
}

// Get returns the user with id, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	u.PasswordHash = ""
	return u, nil
}

// List returns page currentPage (1-based) of users in tenantID, or of every tenant when tenantID is empty.
// Out-of-range paging values are clamped.
func (s *UserService) List(ctx context.Context, tenantID string, currentPage, perPage int) (*Page, error) {
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > MaxPage {
		currentPage = MaxPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	users, total, err := s.users.List(ctx, repository.ListFilter{
		TenantID: tenantID,
		Limit:    perPage,
		Offset:   (currentPage - 1) * perPage,
	})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return &Page{Users: users, Total: total, CurrentPage: currentPage, PerPage: perPage}, nil
}
