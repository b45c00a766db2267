package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	identityservice "auth-service/internal/identity/service"
	"auth-service/internal/platform/rbac"
	"auth-service/internal/security"
	"auth-service/internal/server/httperr"
	userservice "auth-service/internal/user/service"
)

var (
	errRouteNotFound    = errors.New("route not found")
	errMethodNotAllowed = errors.New("method not allowed")
	errMalformedBody    = errors.New("malformed request body")
)

// validationError carries field-level messages produced by a rule set.
type validationError struct {
	items []httperr.Item
}

func (e *validationError) Error() string {
	return "validation failed"
}

// writeError maps err to a status and error body. Server-side failures are logged with
// the request context; client errors are not.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		httperr.Write(w, http.StatusBadRequest, verr.items...)
	case errors.Is(err, errMalformedBody):
		httperr.WriteMessage(w, http.StatusBadRequest, httperr.TypeValidation, "Request body must be a JSON object")
	case errors.Is(err, security.ErrPasswordTooLong):
		httperr.Write(w, http.StatusBadRequest, httperr.Item{
			Type: httperr.TypeValidation, Msg: "Password should be at most 72 bytes!", Path: "password", Location: locationBody,
		})
	case errors.Is(err, identityservice.ErrEmailAlreadyRegistered):
		httperr.WriteMessage(w, http.StatusBadRequest, httperr.TypeConflict, "Email already exists")
	case errors.Is(err, identityservice.ErrInvalidCredentials):
		httperr.Unauthorized(w, "Email or password does not match.")
	case errors.Is(err, identityservice.ErrInvalidRefreshToken):
		httperr.Unauthorized(w, "Invalid or expired refresh token")
	case errors.Is(err, identityservice.ErrNoSession):
		httperr.Unauthorized(w, "No active session")
	case errors.Is(err, rbac.ErrUnauthenticated):
		httperr.Unauthorized(w, "Token is missing")
	case errors.Is(err, rbac.ErrForbidden):
		httperr.Forbidden(w, "You don't have enough permissions")
	case errors.Is(err, userservice.ErrUserNotFound):
		httperr.WriteMessage(w, http.StatusNotFound, httperr.TypeNotFound, "User not found")
	case errors.Is(err, errRouteNotFound):
		httperr.WriteMessage(w, http.StatusNotFound, httperr.TypeNotFound, "Not found")
	case errors.Is(err, errMethodNotAllowed):
		httperr.WriteMessage(w, http.StatusMethodNotAllowed, httperr.TypeNotFound, "Method not allowed")
	case errors.Is(err, security.ErrKeyNotConfigured):
		logger.ErrorContext(r.Context(), "key material not configured", "method", r.Method, "path", r.URL.Path, "error", err)
		httperr.Internal(w)
	default:
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httperr.Internal(w)
	}
}
