package httpx

import (
	"net/http"

	"github.com/DSAshv/urbanAssist/pkg/slogx"
)

// RecoverMiddleware converts a handler panic into a generic 500 response so a
// single bad request can never take the process down.
func RecoverMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slogx.FromContext(r.Context()).Error("handler panic",
						"panic", rec,
						"path", r.URL.Path,
					)
					WriteJSON(w, http.StatusInternalServerError, map[string]any{
						"success": false,
						"message": "Something went wrong!",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
