package httpapi

import (
	"net/http"
	"strconv"

	"auth-service/internal/platform/rbac"
	userdomain "auth-service/internal/user/domain"
)

type listUsersResponse struct {
	Data        []userResponse `json:"data"`
	CurrentPage int            `json:"currentPage"`
	PerPage     int            `json:"perPage"`
	Total       int            `json:"total"`
}

// ListUsers returns one page of users. Admins list every tenant (or the one in ?tenantId=);
// managers list their own tenant and are checked against the scope predicate for any other.
func (a *api) ListUsers(w http.ResponseWriter, r *http.Request) {
	sub, err := rbac.RequireRole(r.Context(), string(userdomain.RoleAdmin), string(userdomain.RoleManager))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	q := r.URL.Query()
	tenantID := q.Get("tenantId")
	if tenantID == "" && sub.Role == string(userdomain.RoleManager) {
		tenantID = sub.TenantID
	}
	if err := rbac.RequireScope(r.Context(), a.scope, sub, rbac.Resource{TenantID: tenantID}); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	page, err := a.users.List(r.Context(), tenantID, queryInt(q.Get("currentPage")), queryInt(q.Get("perPage")))
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	out := listUsersResponse{
		Data:        make([]userResponse, 0, len(page.Users)),
		CurrentPage: page.CurrentPage,
		PerPage:     page.PerPage,
		Total:       page.Total,
	}
	for _, u := range page.Users {
		out.Data = append(out.Data, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// queryInt parses a paging parameter; anything unparsable is 0 and clamped by the service.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
