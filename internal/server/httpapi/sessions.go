package httpapi

import (
	"net/http"

	"auth-service/internal/server/middleware"
)

type sessionResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	ExpiresAt string `json:"expiresAt"`
	Current   bool   `json:"current"`
}

// ListSessions returns the caller's active sessions. The one behind the presented access token is marked current.
func (a *api) ListSessions(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	recs, err := a.sessions.Sessions(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	out := make([]sessionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sessionResponse{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt.UTC().Format(timeLayout),
			ExpiresAt: rec.ExpiresAt.UTC().Format(timeLayout),
			Current:   rec.ID == id.SessionID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}
