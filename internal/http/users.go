package http

import (
	"mime"
	"net/http"

	"github.com/DSAshv/urbanAssist/internal/store"
)

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	a.ok(w, http.StatusOK, "", map[string]any{"user": u.Public()})
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// handleUpdateProfile accepts JSON or, when a new profile picture rides
// along, multipart form data with a "profilePicture" file field.
func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var (
		req     updateProfileRequest
		picture string
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			a.fail(w, http.StatusBadRequest, "Invalid multipart form.", err)
			return
		}
		req.FirstName = r.FormValue("firstName")
		req.LastName = r.FormValue("lastName")
		req.Phone = r.FormValue("phone")
		req.Address = r.FormValue("address")

		if files := r.MultipartForm.File["profilePicture"]; len(files) > 0 {
			name, err := a.Uploads.saveOne(files[0], actor.ID)
			if err != nil {
				a.fail(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
			picture = name
		}
	} else {
		if err := decodeJSON(r, &req); err != nil {
			a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
			return
		}
	}

	u, err := a.Users.UpdateProfile(r.Context(), actor.ID, store.ProfileUpdate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Address:        req.Address,
		ProfilePicture: picture,
	})
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Profile updated.", map[string]any{"user": u.Public()})
}

type registerPushRequest struct {
	Token string `json:"token"`
}

func (a *API) handleRegisterPushToken(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req registerPushRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	if err := a.Users.RegisterPushToken(r.Context(), actor.ID, req.Token); err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Push token registered.", nil)
}
