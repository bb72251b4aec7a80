package http

import (
	"log/slog"
	"net/http"

	"github.com/DSAshv/urbanAssist/pkg/httpx"
	"github.com/DSAshv/urbanAssist/pkg/slogx"
)

// RouterConfig carries the cross-cutting HTTP settings.
type RouterConfig struct {
	// ClientURL is the single origin allowed to make credentialed requests.
	ClientURL string
	UploadDir string
}

// NewRouter builds the full route table. Auth endpoints get the strict rate
// limit, write endpoints the moderate one; reads ride the global lenient
// limit.
func NewRouter(api *API, log *slog.Logger, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	strict := httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.IPKey)
	moderate := httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKey)

	public := func(h http.HandlerFunc, mws ...httpx.Middleware) http.Handler {
		return httpx.Chain(h, mws...)
	}
	authed := func(h http.HandlerFunc, mws ...httpx.Middleware) http.Handler {
		return httpx.Chain(api.authenticate(h), mws...)
	}
	admin := func(h http.HandlerFunc, mws ...httpx.Middleware) http.Handler {
		return httpx.Chain(api.authenticate(api.requireAdmin(h)), mws...)
	}

	mux.Handle("POST /api/auth/register", public(api.handleRegister, strict))
	mux.Handle("POST /api/auth/login", public(api.handleLogin, strict))
	mux.Handle("POST /api/auth/refresh-token", public(api.handleRefreshToken, moderate))
	mux.Handle("GET /api/auth/me", authed(api.handleMe))
	mux.Handle("POST /api/auth/logout", authed(api.handleLogout))
	mux.Handle("POST /api/auth/mfa/setup", authed(api.handleMFASetup, strict))
	mux.Handle("POST /api/auth/mfa/verify", authed(api.handleMFAVerify, strict))
	mux.Handle("POST /api/auth/mfa/disable", authed(api.handleMFADisable, strict))

	mux.Handle("POST /api/complaints", authed(api.handleCreateComplaint, moderate))
	mux.Handle("GET /api/complaints", authed(api.handleListComplaints))
	mux.Handle("GET /api/complaints/nearby", authed(api.handleNearbyComplaints))
	mux.Handle("GET /api/complaints/{id}", authed(api.handleGetComplaint))
	mux.Handle("POST /api/complaints/{id}/comments", authed(api.handleAddComment, moderate))
	mux.Handle("PATCH /api/complaints/{id}/status", admin(api.handleUpdateStatus))
	mux.Handle("PATCH /api/complaints/{id}/assign", admin(api.handleAssignComplaint))

	mux.Handle("GET /api/admin/complaints/stats", admin(api.handleComplaintStats))
	mux.Handle("GET /api/admin/users", admin(api.handleListUsers))
	mux.Handle("POST /api/admin/users", admin(api.handleCreateUser))
	mux.Handle("PUT /api/admin/users/{id}", admin(api.handleUpdateUser))

	mux.Handle("GET /api/users/profile", authed(api.handleGetProfile))
	mux.Handle("PATCH /api/users/profile", authed(api.handleUpdateProfile))
	mux.Handle("POST /api/notifications/register", authed(api.handleRegisterPushToken))

	mux.HandleFunc("GET /healthz", api.handleHealth)
	mux.Handle("GET /uploads/",
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Unmatched routes get the JSON 404 instead of the stdlib text page.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.fail(w, http.StatusNotFound, "Route not found.", nil)
	})

	cors := httpx.CORSMiddleware(httpx.CORSConfig{
		AllowedOrigins: []string{cfg.ClientURL},
		AllowedMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowedHeaders: "Content-Type, Authorization, X-Request-ID",
	})
	lenient := httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKey)

	return httpx.Chain(mux,
		httpx.RecoverMiddleware(),
		httpx.Middleware(slogx.HTTPMiddleware(log)),
		cors,
		lenient,
	)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Ping(r.Context()); err != nil {
		a.fail(w, http.StatusServiceUnavailable, "Store unavailable.", err)
		return
	}
	a.ok(w, http.StatusOK, "ok", nil)
}
