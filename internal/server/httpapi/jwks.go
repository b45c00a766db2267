package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"auth-service/internal/security"
	"auth-service/internal/server/httperr"
)

// JWKS publishes the access-token verification key. Without a configured public key it responds 500.
func (a *api) JWKS(w http.ResponseWriter, r *http.Request) {
	if a.keys == nil {
		a.log.ErrorContext(r.Context(), "jwks: no key source")
		httperr.WriteMessage(w, http.StatusInternalServerError, httperr.TypeInternal, "JWT_PUBLIC_KEY is not set")
		return
	}
	set, err := a.keys.JWKS()
	if err != nil {
		if errors.Is(err, security.ErrKeyNotConfigured) {
			a.log.ErrorContext(r.Context(), "jwks: public key not configured")
			httperr.WriteMessage(w, http.StatusInternalServerError, httperr.TypeInternal, "JWT_PUBLIC_KEY is not set")
			return
		}
		writeError(w, r, a.log, err)
		return
	}
	body, err := json.Marshal(set)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Healthz responds 200 when dependencies are ready and 503 otherwise.
func (a *api) Healthz(w http.ResponseWriter, r *http.Request) {
	if a.readiness != nil {
		if err := a.readiness.Check(r.Context()); err != nil {
			a.log.WarnContext(r.Context(), "readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_SERVING"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "SERVING"})
}
