// Package httpapi is the HTTP surface of the service: session endpoints with cookie transport,
// the JWKS endpoint, user reads and the readiness probe.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lestrrat-go/jwx/v3/jwk"

	auditdomain "auth-service/internal/audit/domain"
	identityservice "auth-service/internal/identity/service"
	"auth-service/internal/platform/rbac"
	rtdomain "auth-service/internal/refreshtoken/domain"
	"auth-service/internal/security"
	"auth-service/internal/server/middleware"
	userdomain "auth-service/internal/user/domain"
	userservice "auth-service/internal/user/service"
)

// SessionService runs the register, login, refresh and logout workflows. Satisfied by *identityservice.AuthService.
type SessionService interface {
	Register(ctx context.Context, in identityservice.RegisterInput) (*identityservice.AuthResult, error)
	Login(ctx context.Context, email, password string) (*identityservice.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*identityservice.AuthResult, error)
	Logout(ctx context.Context, caller security.Principal, sessionID string) error
	Sessions(ctx context.Context, userID string) ([]*rtdomain.RefreshToken, error)
}

// AuditTrail reads persisted session events. Satisfied by the audit Postgres repository.
type AuditTrail interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*auditdomain.AuditLog, error)
}

// UserDirectory serves user reads. Satisfied by *userservice.UserService.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*userdomain.User, error)
	List(ctx context.Context, tenantID string, currentPage, perPage int) (*userservice.Page, error)
}

// KeySet publishes the access-token verification key. Satisfied by *security.KeyMaterial.
type KeySet interface {
	JWKS() (jwk.Set, error)
}

// Readiness reports whether dependencies are reachable. Satisfied by *health.Checker.
type Readiness interface {
	Check(ctx context.Context) error
}

// Deps holds the router dependencies. Users, Audit, Scope, Readiness and Telemetry are optional.
type Deps struct {
	Logger    *slog.Logger
	Sessions  SessionService
	Users     UserDirectory
	Audit     AuditTrail
	Tokens    middleware.AccessValidator
	Keys      KeySet
	Scope     rbac.ScopeChecker
	Readiness Readiness
	Cookies   CookieConfig
	// AllowedOrigin is the browser origin allowed to make credentialed requests; empty disables CORS.
	AllowedOrigin string
	// Telemetry wraps every routed request; see middleware.Telemetry.
	Telemetry func(http.Handler) http.Handler
}

type api struct {
	log       *slog.Logger
	sessions  SessionService
	users     UserDirectory
	audit     AuditTrail
	keys      KeySet
	scope     rbac.ScopeChecker
	readiness Readiness
	cookies   CookieConfig
}

// NewRouter builds the HTTP handler with all routes and the middleware chain.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{
		log:       logger,
		sessions:  deps.Sessions,
		users:     deps.Users,
		audit:     deps.Audit,
		keys:      deps.Keys,
		scope:     deps.Scope,
		readiness: deps.Readiness,
		cookies:   deps.Cookies,
	}
	guard := middleware.Authenticate(logger, deps.Tokens)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(a.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(a.methodNotAllowed)
	r.Use(middleware.Recovery(logger), middleware.RealIP, middleware.Logging(logger, "/healthz"))
	if deps.Telemetry != nil {
		r.Use(deps.Telemetry)
	}

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/jwks.json", a.JWKS).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", a.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", a.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", a.Refresh).Methods(http.MethodPost)
	auth.Handle("/logout", guard(http.HandlerFunc(a.Logout))).Methods(http.MethodPost)
	auth.Handle("/self", guard(http.HandlerFunc(a.Self))).Methods(http.MethodGet)
	auth.Handle("/sessions", guard(http.HandlerFunc(a.ListSessions))).Methods(http.MethodGet)

	if deps.Users != nil {
		r.Handle("/users", guard(http.HandlerFunc(a.ListUsers))).Methods(http.MethodGet)
		if deps.Audit != nil {
			r.Handle("/users/{id}/audit", guard(http.HandlerFunc(a.UserAudit))).Methods(http.MethodGet)
		}
	}
	return middleware.CORS(deps.AllowedOrigin)(r)
}

func (a *api) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, a.log, errRouteNotFound)
}

func (a *api) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, a.log, errMethodNotAllowed)
}
