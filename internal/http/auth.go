package http

import (
	"net/http"
	"strings"

	"github.com/DSAshv/urbanAssist/internal/service"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	u, pair, err := a.Auth.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		a.failFrom(w, r, err)
		return
	}

	a.setSessionCookies(w, pair)
	a.ok(w, http.StatusCreated, "Account created.", map[string]any{
		"user":        u.Public(),
		"accessToken": pair.AccessToken,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFAToken string `json:"mfaToken"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	res, err := a.Auth.Login(r.Context(), req.Email, req.Password, req.MFAToken)
	if err != nil {
		a.failFrom(w, r, err)
		return
	}

	if res.MFARequired {
		a.ok(w, http.StatusOK, "MFA token required.", map[string]any{
			"mfaRequired": true,
		})
		return
	}

	a.setSessionCookies(w, res.Tokens)
	a.ok(w, http.StatusOK, "Logged in.", map[string]any{
		"user":        res.User.Public(),
		"accessToken": res.Tokens.AccessToken,
	})
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(refreshCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		// Bearer-style clients send the refresh token in the body.
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeJSON(r, &req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		a.fail(w, http.StatusUnauthorized, "Refresh token required.", nil)
		return
	}

	pair, err := a.Auth.RefreshTokens(r.Context(), token)
	if err != nil {
		a.clearSessionCookies(w)
		a.failFrom(w, r, err)
		return
	}

	a.setSessionCookies(w, pair)
	a.ok(w, http.StatusOK, "Tokens refreshed.", map[string]any{
		"accessToken": pair.AccessToken,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	a.ok(w, http.StatusOK, "", map[string]any{"user": u.Public()})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	if err := a.Auth.Logout(r.Context(), u.ID); err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.clearSessionCookies(w)
	a.ok(w, http.StatusOK, "Logged out.", nil)
}

func (a *API) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	setup, err := a.MFA.Setup(r.Context(), u)
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Scan the QR code with your authenticator app.", setup)
}

type mfaVerifyRequest struct {
	Token string `json:"token"`
}

func (a *API) handleMFAVerify(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req mfaVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	if err := a.MFA.VerifyAndEnable(r.Context(), u, req.Token); err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "MFA enabled.", nil)
}

type mfaDisableRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *API) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req mfaDisableRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	if err := a.MFA.Disable(r.Context(), u, req.Token, req.Password); err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "MFA disabled.", nil)
}
