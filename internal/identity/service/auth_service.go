package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	rtdomain "auth-service/internal/refreshtoken/domain"
	"auth-service/internal/security"
	"auth-service/internal/telemetry"
	telemetrydomain "auth-service/internal/telemetry/domain"
	userdomain "auth-service/internal/user/domain"
	userrepo "auth-service/internal/user/repository"
)

// Sentinel errors for auth service; the HTTP layer maps them to status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("email or password does not match")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrNoSession              = errors.New("no active session")
)

// RegisterInput is the validated registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthResult holds the outcome of Register, Login, or Refresh: the new token pair and the user it was minted for.
type AuthResult struct {
	Tokens *TokenPair
	User   *userdomain.User
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// PasswordHasher hashes and verifies passwords. Satisfied by *security.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// AuthService implements register, login, refresh, and logout on top of TokenService.
type AuthService struct {
	users  UserRepo
	tokens *TokenService
	hasher PasswordHasher
	events telemetry.EventEmitter
}

// NewAuthService returns an AuthService with the given dependencies. events may be nil.
func NewAuthService(users UserRepo, tokens *TokenService, hasher PasswordHasher, events telemetry.EventEmitter) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher, events: events}
}

// Register creates a customer account and signs the user in.
// Returns ErrEmailAlreadyRegistered if the email is in use; no second user is created.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := s.tokens.CanSign(); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hashed,
		Role:         userdomain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	pair, err := s.tokens.MintPair(ctx, principalOf(user))
	if err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventRegister, user, pair.SessionID, "")
	return &AuthResult{Tokens: pair, User: withoutPassword(user)}, nil
}

// Login verifies email and password and starts a new session.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := s.tokens.CanSign(); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmailWithPassword(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" || !s.hasher.Verify(password, user.PasswordHash) {
		s.emit(ctx, telemetrydomain.EventLoginFailed, user, "", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	pair, err := s.tokens.MintPair(ctx, principalOf(user))
	if err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventLogin, user, pair.SessionID, "")
	return &AuthResult{Tokens: pair, User: withoutPassword(user)}, nil
}

// Refresh rotates the session: the record behind refreshToken is deleted and a new pair bound to a new record
// is returned. A token whose record is already gone (rotated or logged out) returns ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	if err := s.tokens.CanSign(); err != nil {
		return nil, err
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrKeyNotConfigured) {
			return nil, err
		}
		s.emit(ctx, telemetrydomain.EventRefreshRejected, nil, "", "invalid_token")
		return nil, ErrInvalidRefreshToken
	}
	deleted, err := s.tokens.DeleteRefreshToken(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		s.emit(ctx, telemetrydomain.EventRefreshRejected, &userdomain.User{ID: claims.Subject}, claims.ID, "revoked")
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.emit(ctx, telemetrydomain.EventRefreshRejected, &userdomain.User{ID: claims.Subject}, claims.ID, "user_not_found")
		return nil, ErrInvalidRefreshToken
	}
	pair, err := s.tokens.MintPair(ctx, principalOf(user))
	if err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventRefresh, user, pair.SessionID, "")
	return &AuthResult{Tokens: pair, User: user}, nil
}

// Logout ends the session identified by sessionID (the sid of the caller's access token).
// caller is the identity from that token; it is only recorded on the logout event.
// Returns ErrNoSession when there is no such session, including one that was already rotated or logged out.
func (s *AuthService) Logout(ctx context.Context, caller security.Principal, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	deleted, err := s.tokens.DeleteRefreshToken(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNoSession
	}
	s.emit(ctx, telemetrydomain.EventLogout, &userdomain.User{
		ID:       caller.UserID,
		Role:     userdomain.Role(caller.Role),
		TenantID: caller.TenantID,
	}, sessionID, "")
	return nil
}

// Sessions lists the caller's active sessions, one per unexpired refresh record.
func (s *AuthService) Sessions(ctx context.Context, userID string) ([]*rtdomain.RefreshToken, error) {
	return s.tokens.ActiveSessions(ctx, userID)
}

func (s *AuthService) emit(ctx context.Context, t telemetrydomain.EventType, user *userdomain.User, sessionID, reason string) {
	if s.events == nil {
		return
	}
	ev := telemetrydomain.NewSessionEvent(t, "", sessionID)
	if user != nil {
		ev.UserID = user.ID
		ev.Role = string(user.Role)
		ev.TenantID = user.TenantID
	}
	ev.Reason = reason
	telemetry.EmitAsync(s.events, ctx, ev)
}

func principalOf(u *userdomain.User) security.Principal {
	return security.Principal{UserID: u.ID, Role: string(u.Role), TenantID: u.TenantID}
}

func withoutPassword(u *userdomain.User) *userdomain.User {
	c := *u
	c.PasswordHash = ""
	return &c
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
