package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenTTL is the fixed lifetime of an access token.
	AccessTokenTTL = time.Hour
	// RefreshTokenTTL is the fixed lifetime of a refresh token and its stored record (365 days, leap years ignored).
	RefreshTokenTTL = 365 * 24 * time.Hour
	// DefaultIssuer is the iss claim when none is configured.
	DefaultIssuer = "auth-service"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, tampered with, or signed by another key.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims holds JWT claims for the access token. SessionID is the id of the refresh
// record minted alongside it, so logout can find the session from the access token alone.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	TenantID  string `json:"tenant_id,omitempty"`
	SessionID string `json:"sid,omitempty"`
}

// RefreshClaims holds JWT claims for the refresh token. ID (jti) is the stored record id.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Principal is the identity tokens are minted for.
type Principal struct {
	UserID   string
	Role     string
	TenantID string
}

// TokenProvider issues and validates access tokens (RS256, private/public key) and
// refresh tokens (HS256, shared secret).
type TokenProvider struct {
	keys   *KeyMaterial
	issuer string
	now    func() time.Time
}

// NewTokenProvider returns a TokenProvider backed by keys. An empty issuer falls back to DefaultIssuer.
func NewTokenProvider(keys *KeyMaterial, issuer string) *TokenProvider {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &TokenProvider{keys: keys, issuer: issuer, now: time.Now}
}

// Issuer returns the iss claim set on every token.
func (p *TokenProvider) Issuer() string {
	return p.issuer
}

// CanSign returns ErrKeyNotConfigured if either signing key is missing. Callers use it to
// fail before any side effect of a mint operation.
func (p *TokenProvider) CanSign() error {
	if _, err := p.keys.PrivateKey(); err != nil {
		return err
	}
	if _, err := p.keys.RefreshSecret(); err != nil {
		return err
	}
	return nil
}

// IssueAccess issues a 1-hour RS256 access JWT for principal bound to sessionID.
// Returns ErrKeyNotConfigured before doing anything else if the private key is absent.
func (p *TokenProvider) IssueAccess(principal Principal, sessionID string) (token string, expiresAt time.Time, err error) {
	privateKey, err := p.keys.PrivateKey()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt = now.Add(AccessTokenTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      principal.Role,
		TenantID:  principal.TenantID,
		SessionID: sessionID,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefresh issues a 1-year HS256 refresh JWT whose jti is recordID. It has no persistence
// side effect; the caller must have stored the record already.
func (p *TokenProvider) IssueRefresh(principal Principal, recordID string) (token string, expiresAt time.Time, err error) {
	secret, err := p.keys.RefreshSecret()
	if err != nil {
		return "", time.Time{}, err
	}
	if recordID == "" {
		return "", time.Time{}, errors.New("refresh token: record id is required")
	}
	now := p.now().UTC()
	expiresAt = now.Add(RefreshTokenTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        recordID,
			Subject:   principal.UserID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: principal.Role,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccess parses and validates the access token (RS256 signature, exp, iss).
// Returns ErrKeyNotConfigured if no public key is set, ErrInvalidToken otherwise.
func (p *TokenProvider) ValidateAccess(tokenString string) (*AccessClaims, error) {
	publicKey, err := p.keys.PublicKey()
	if err != nil {
		return nil, err
	}
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return publicKey, nil
	}, p.parserOptions(jwt.SigningMethodRS256.Alg())...)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefresh parses and validates the refresh token (HS256 signature, exp, iss, jti present).
// Returns ErrKeyNotConfigured if no secret is set, ErrInvalidToken otherwise.
func (p *TokenProvider) ValidateRefresh(tokenString string) (*RefreshClaims, error) {
	secret, err := p.keys.RefreshSecret()
	if err != nil {
		return nil, err
	}
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, p.parserOptions(jwt.SigningMethodHS256.Alg())...)
	if err != nil || !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) parserOptions(alg string) []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
}
