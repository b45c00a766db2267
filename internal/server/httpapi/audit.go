package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"auth-service/internal/platform/rbac"
	userdomain "auth-service/internal/user/domain"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 100
)

type auditEntryResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Resource  string          `json:"resource"`
	IP        string          `json:"ip"`
	TenantID  string          `json:"tenantId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

type auditPageResponse struct {
	Data   []auditEntryResponse `json:"data"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// UserAudit returns a user's session audit trail, newest first. Admins read any user;
// managers only users of their own tenant.
func (a *api) UserAudit(w http.ResponseWriter, r *http.Request) {
	sub, err := rbac.RequireRole(r.Context(), string(userdomain.RoleAdmin), string(userdomain.RoleManager))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	target, err := a.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if err := rbac.RequireScope(r.Context(), a.scope, sub, rbac.Resource{TenantID: target.TenantID}); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"))
	if limit < 1 {
		limit = defaultAuditLimit
	}
	limit = min(limit, maxAuditLimit)
	offset := max(queryInt(q.Get("offset")), 0)

	logs, err := a.audit.ListByUser(r.Context(), target.ID, limit, offset)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	out := auditPageResponse{Data: make([]auditEntryResponse, 0, len(logs)), Limit: limit, Offset: offset}
	for _, l := range logs {
		e := auditEntryResponse{
			ID:        l.ID,
			Action:    l.Action,
			Resource:  l.Resource,
			IP:        l.IP,
			TenantID:  l.TenantID,
			CreatedAt: l.CreatedAt.UTC().Format(timeLayout),
		}
		if l.Metadata != "" {
			e.Metadata = json.RawMessage(l.Metadata)
		}
		out.Data = append(out.Data, e)
	}
	writeJSON(w, http.StatusOK, out)
}
