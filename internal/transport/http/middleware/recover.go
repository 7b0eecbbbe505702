package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"leavehub/internal/requestctx"
	"leavehub/internal/transport/http/api"
)

// Recoverer converts handler panics into a 500 envelope so one bad
// request never takes the process down.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic",
					"panic", rec,
					"path", r.URL.Path,
					"requestId", requestctx.GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestctx.GetRequestID(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
