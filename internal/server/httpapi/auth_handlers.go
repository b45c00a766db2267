package httpapi

import (
	"net/http"

	identityservice "auth-service/internal/identity/service"
	"auth-service/internal/security"
	"auth-service/internal/server/middleware"
	userdomain "auth-service/internal/user/domain"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type idResponse struct {
	ID string `json:"id"`
}

type userResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  string `json:"tenantId,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserResponse(u *userdomain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		TenantID:  u.TenantID,
		CreatedAt: u.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: u.UpdatedAt.UTC().Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Register creates a customer account, sets both session cookies and responds 201 {"id": ...}.
func (a *api) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if err := registerRules.apply(map[string]*string{
		"firstName": &req.FirstName,
		"lastName":  &req.LastName,
		"email":     &req.Email,
		"password":  &req.Password,
	}); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	res, err := a.sessions.Register(r.Context(), identityservice.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	a.log.InfoContext(r.Context(), "user registered", "user_id", res.User.ID)
	a.cookies.setSessionCookies(w, res.Tokens)
	writeJSON(w, http.StatusCreated, idResponse{ID: res.User.ID})
}

// Login verifies credentials and starts a new session. Wrong credentials set no cookies.
func (a *api) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if err := loginRules.apply(map[string]*string{
		"email":    &req.Email,
		"password": &req.Password,
	}); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	res, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	a.log.InfoContext(r.Context(), "user logged in", "user_id", res.User.ID)
	a.cookies.setSessionCookies(w, res.Tokens)
	writeJSON(w, http.StatusOK, idResponse{ID: res.User.ID})
}

// Refresh rotates the session identified by the refreshToken cookie.
func (a *api) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = c.Value
	}
	res, err := a.sessions.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	a.log.InfoContext(r.Context(), "session refreshed", "user_id", res.User.ID)
	a.cookies.setSessionCookies(w, res.Tokens)
	writeJSON(w, http.StatusOK, idResponse{ID: res.User.ID})
}

// Logout ends the caller's session (the sid of the access token) and clears both cookies.
func (a *api) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	caller := security.Principal{UserID: id.UserID, Role: id.Role, TenantID: id.TenantID}
	if err := a.sessions.Logout(r.Context(), caller, id.SessionID); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	a.log.InfoContext(r.Context(), "user logged out", "user_id", id.UserID)
	a.cookies.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, struct{}{})
}

// Self returns the authenticated user.
func (a *api) Self(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	if a.users == nil {
		writeError(w, r, a.log, errRouteNotFound)
		return
	}
	u, err := a.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
