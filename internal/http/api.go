// Package http exposes the REST surface: JSON envelopes, the cookie/bearer
// auth middleware and the route table over the standard library mux.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/service"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/httpx"
	"github.com/DSAshv/urbanAssist/pkg/jwtx"
)

const (
	accessCookie  = "token"
	refreshCookie = "refreshToken"

	timeLayout = time.RFC3339
)

// API holds the handler dependencies. Construct it once in app wiring.
type API struct {
	Auth       *service.AuthService
	MFA        *service.MFAService
	Complaints *service.ComplaintService
	Users      *service.UserService

	Store  store.Store
	Access *jwtx.Signer

	// Env gates error detail in responses and cookie security flags.
	Env string

	Uploads *UploadStore
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// setSessionCookies installs the HTTP-only session cookies. The refresh
// cookie is scoped to the refresh endpoint so it never rides along on normal
// API calls.
func (a *API) setSessionCookies(w http.ResponseWriter, pair domain.TokenPair) {
	httpx.NoCache(w)
	secure := a.Env == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(a.Access.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/api/auth/refresh-token",
		MaxAge:   int(a.Auth.Refresh.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: accessCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name: refreshCookie, Value: "", Path: "/api/auth/refresh-token", MaxAge: -1, HttpOnly: true,
	})
}
