package domain

import "time"

// RefreshToken is the server-side record a refresh token's jti points at.
// Deleting the record revokes the token; the token string itself is never stored.
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
