package httpx

import (
	"net/http"
	"slices"
)

// CORSConfig describes the browser origins allowed to call the API with
// credentials (the session cookie).
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods string
	AllowedHeaders string
}

// CORSMiddleware answers preflight requests and stamps CORS headers on
// responses for allowed origins. Credentialed CORS forbids a wildcard
// origin, so the matched origin is echoed back verbatim.
func CORSMiddleware(cfg CORSConfig) Middleware {
	methods := cfg.AllowedMethods
	if methods == "" {
		methods = "GET, POST, PUT, DELETE, PATCH, OPTIONS"
	}
	headers := cfg.AllowedHeaders
	if headers == "" {
		headers = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(cfg.AllowedOrigins, origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
