package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"auth-service/internal/security"
	"auth-service/internal/server/httperr"
)

// AccessTokenCookie is the cookie the access token travels in.
const AccessTokenCookie = "accessToken"

const bearerPrefix = "bearer "

// AccessValidator validates access tokens. Satisfied by *security.TokenProvider.
type AccessValidator interface {
	ValidateAccess(token string) (*security.AccessClaims, error)
}

// Authenticate returns middleware that requires a valid access token, taken from the accessToken
// cookie or else an Authorization: Bearer header, and stores the caller's Identity in the request
// context. Validation is stateless: the refresh token store is never consulted.
// Missing or invalid tokens get 401; a missing public key gets 500.
func Authenticate(logger *slog.Logger, tokens AccessValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				httperr.Unauthorized(w, "Token is missing")
				return
			}
			claims, err := tokens.ValidateAccess(token)
			if err != nil {
				if errors.Is(err, security.ErrKeyNotConfigured) {
					logger.ErrorContext(r.Context(), "auth: public key not configured", "error", err)
					httperr.Internal(w)
					return
				}
				logger.DebugContext(r.Context(), "auth: invalid access token", "path", r.URL.Path, "error", err)
				httperr.Unauthorized(w, "Invalid or expired token")
				return
			}
			ctx := WithIdentity(r.Context(), Identity{
				UserID:    claims.Subject,
				Role:      claims.Role,
				TenantID:  claims.TenantID,
				SessionID: claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken returns the access token from the cookie, falling back to the Bearer header; "" if neither is usable.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
