package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"auth-service/internal/server/httperr"
)

// Recovery turns a handler panic into a logged stack trace and a generic 500 JSON body.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic recovered",
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					httperr.Internal(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
