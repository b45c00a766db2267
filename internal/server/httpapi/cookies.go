package httpapi

import (
	"net/http"
	"time"

	identityservice "auth-service/internal/identity/service"
	"auth-service/internal/security"
	"auth-service/internal/server/middleware"
)

// RefreshTokenCookie is the cookie the refresh token travels in.
const RefreshTokenCookie = "refreshToken"

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	// Domain is the cookie Domain attribute; empty means host-only.
	Domain string
	// Secure sets the Secure attribute; enable whenever the service is served over TLS.
	Secure bool
}

func (c CookieConfig) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// setSessionCookies sets both credentials of pair.
func (c CookieConfig) setSessionCookies(w http.ResponseWriter, pair *identityservice.TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, pair.AccessToken, security.AccessTokenTTL))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, pair.RefreshToken, security.RefreshTokenTTL))
}

// clearSessionCookies expires both credentials on the client.
func (c CookieConfig) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}
