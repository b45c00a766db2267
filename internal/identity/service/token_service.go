package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	rtdomain "auth-service/internal/refreshtoken/domain"
	"auth-service/internal/security"
)

// RefreshTokenStore is the minimal refresh token repository needed by the token service.
type RefreshTokenStore interface {
	Create(ctx context.Context, userID string, expiresAt time.Time) (*rtdomain.RefreshToken, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*rtdomain.RefreshToken, error)
}

// TokenPair is a freshly minted access/refresh pair bound to one stored refresh record.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	// SessionID is the id of the refresh record; it is the refresh token's jti and the access token's sid.
	SessionID string
}

// TokenService mints access and refresh tokens and owns the refresh record lifecycle.
type TokenService struct {
	tokens *security.TokenProvider
	store  RefreshTokenStore
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with tokens and persisting records in store.
func NewTokenService(tokens *security.TokenProvider, store RefreshTokenStore) *TokenService {
	return &TokenService{tokens: tokens, store: store, now: time.Now}
}

// CanSign returns security.ErrKeyNotConfigured when any signing key is missing.
func (s *TokenService) CanSign() error {
	return s.tokens.CanSign()
}

// IssueAccessToken signs a 1-hour RS256 access token for principal bound to sessionID.
func (s *TokenService) IssueAccessToken(principal security.Principal, sessionID string) (string, time.Time, error) {
	return s.tokens.IssueAccess(principal, sessionID)
}

// IssueRefreshToken signs a 1-year HS256 refresh token whose jti is recordID. No persistence side effect.
func (s *TokenService) IssueRefreshToken(principal security.Principal, recordID string) (string, time.Time, error) {
	return s.tokens.IssueRefresh(principal, recordID)
}

// ValidateRefreshToken checks the refresh token's signature, expiry and issuer. It does not consult the store.
func (s *TokenService) ValidateRefreshToken(token string) (*security.RefreshClaims, error) {
	return s.tokens.ValidateRefresh(token)
}

// PersistRefreshToken stores a refresh record for userID expiring one year from now.
func (s *TokenService) PersistRefreshToken(ctx context.Context, userID string) (*rtdomain.RefreshToken, error) {
	rec, err := s.store.Create(ctx, userID, s.now().UTC().Add(security.RefreshTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return rec, nil
}

// DeleteRefreshToken removes the record with id and reports whether it existed.
// Deleting an unknown or malformed id is not an error.
func (s *TokenService) DeleteRefreshToken(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	return s.store.DeleteByID(ctx, id)
}

// ActiveSessions returns userID's unexpired refresh records, oldest first.
func (s *TokenService) ActiveSessions(ctx context.Context, userID string) ([]*rtdomain.RefreshToken, error) {
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	now := s.now()
	out := make([]*rtdomain.RefreshToken, 0, len(recs))
	for _, rec := range recs {
		if !rec.Expired(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MintPair persists a new refresh record for principal and signs a token pair bound to it.
// Key presence is checked before the record is written, and the record is written before anything is signed.
func (s *TokenService) MintPair(ctx context.Context, principal security.Principal) (*TokenPair, error) {
	if err := s.CanSign(); err != nil {
		return nil, err
	}
	rec, err := s.PersistRefreshToken(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	pair, err := s.sign(principal, rec.ID)
	if err != nil {
		if _, delErr := s.store.DeleteByID(ctx, rec.ID); delErr != nil {
			slog.WarnContext(ctx, "token: orphaned refresh record", "record_id", rec.ID, "error", delErr)
		}
		return nil, err
	}
	return pair, nil
}

func (s *TokenService) sign(principal security.Principal, recordID string) (*TokenPair, error) {
	refresh, refreshExp, err := s.IssueRefreshToken(principal, recordID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	access, accessExp, err := s.IssueAccessToken(principal, recordID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		SessionID:        recordID,
	}, nil
}
