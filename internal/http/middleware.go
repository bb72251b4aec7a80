package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/jwtx"
)

type userCtxKey struct{}

// UserFromContext returns the authenticated user placed there by
// authenticate. The second return is false on unauthenticated requests.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(domain.User)
	return u, ok
}

// bearerOrCookie extracts the access token, preferring the HTTP-only cookie
// over the Authorization header.
func bearerOrCookie(r *http.Request) string {
	if c, err := r.Cookie(accessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// authenticate resolves the acting user. The user record is re-read on every
// request so role changes and suspensions apply immediately; tokens carry
// nothing but the subject.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerOrCookie(r)
		if token == "" {
			a.fail(w, http.StatusUnauthorized, "Authentication required.", nil)
			return
		}

		claims, err := a.Access.Verify(token)
		if err != nil {
			// Expired gets a distinct message: it is the client's cue to
			// attempt a silent refresh instead of forcing a re-login.
			if errors.Is(err, jwtx.ErrExpired) {
				a.fail(w, http.StatusUnauthorized, "Token expired.", nil)
			} else {
				a.fail(w, http.StatusUnauthorized, "Invalid token.", nil)
			}
			return
		}

		u, err := a.Store.Users().GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				a.fail(w, http.StatusUnauthorized, "Invalid token.", nil)
				return
			}
			a.failFrom(w, r, err)
			return
		}
		if !u.Active {
			a.fail(w, http.StatusUnauthorized, "Account is deactivated.", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin composes after authenticate.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok || u.Role != domain.RoleAdmin {
			a.fail(w, http.StatusForbidden, "Admin access required.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
