package http

import (
	"errors"
	"math"
	"net/http"

	"github.com/DSAshv/urbanAssist/internal/service"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/httpx"
	"github.com/DSAshv/urbanAssist/pkg/slogx"
)

// pagination is attached to list responses.
type pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

func newPagination(total, page, limit int) pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return pagination{Total: total, Page: page, Pages: pages, Limit: limit}
}

type successBody struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (a *API) ok(w http.ResponseWriter, code int, message string, data any) {
	httpx.WriteJSON(w, code, successBody{Success: true, Message: message, Data: data})
}

func (a *API) okPaged(w http.ResponseWriter, message string, data any, p pagination) {
	httpx.WriteJSON(w, http.StatusOK, successBody{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &p,
	})
}

// fail writes an error envelope. The underlying error is echoed only outside
// production.
func (a *API) fail(w http.ResponseWriter, code int, message string, err error) {
	body := errorBody{Success: false, Message: message}
	if err != nil && a.Env != "production" {
		body.Error = err.Error()
	}
	httpx.WriteJSON(w, code, body)
}

// failFrom maps a service error to the HTTP taxonomy: validation 400,
// authentication 401, authorization 403, unknown id 404, anything else 500.
func (a *API) failFrom(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		a.fail(w, http.StatusBadRequest, ve.Reason, nil)
	case errors.Is(err, service.ErrEmailTaken):
		a.fail(w, http.StatusBadRequest, "Email already registered.", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		a.fail(w, http.StatusUnauthorized, "Invalid email or password.", nil)
	case errors.Is(err, service.ErrInvalidMFAToken):
		a.fail(w, http.StatusUnauthorized, "Invalid MFA token.", nil)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		a.fail(w, http.StatusUnauthorized, "Invalid refresh token.", nil)
	case errors.Is(err, service.ErrAccountSuspended):
		a.fail(w, http.StatusForbidden, "Account suspended.", nil)
	case errors.Is(err, service.ErrForbidden):
		a.fail(w, http.StatusForbidden, "You do not have permission to perform this action.", nil)
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		a.fail(w, http.StatusBadRequest, "MFA is already enabled.", nil)
	case errors.Is(err, service.ErrMFANotConfigured):
		a.fail(w, http.StatusBadRequest, "MFA setup has not been started.", nil)
	case errors.Is(err, service.ErrMFANotEnabled):
		a.fail(w, http.StatusBadRequest, "MFA is not enabled.", nil)
	case errors.Is(err, store.ErrNotFound):
		a.fail(w, http.StatusNotFound, "Resource not found.", nil)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		a.fail(w, http.StatusInternalServerError, "Something went wrong!", err)
	}
}
