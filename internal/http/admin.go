package http

import (
	"net/http"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/service"
)

type updateStatusRequest struct {
	Status  domain.Status `json:"status"`
	Comment string        `json:"comment"`
}

func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	c, err := a.Complaints.UpdateStatus(r.Context(), actor, r.PathValue("id"), req.Status, req.Comment)
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Status updated.", map[string]any{
		"complaint": viewComplaint(c),
	})
}

type assignRequest struct {
	Department string `json:"department"`
	AssignedTo string `json:"assignedTo"`
	Note       string `json:"note"`
}

func (a *API) handleAssignComplaint(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	c, err := a.Complaints.Assign(r.Context(), actor, r.PathValue("id"), req.Department, req.AssignedTo, req.Note)
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Complaint assigned.", map[string]any{
		"complaint": viewComplaint(c),
	})
}

func (a *API) handleComplaintStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Complaints.Stats(r.Context())
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "", map[string]any{"stats": stats})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Users.List(r.Context())
	if err != nil {
		a.failFrom(w, r, err)
		return
	}

	views := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		views = append(views, u.Public())
	}
	a.ok(w, http.StatusOK, "", map[string]any{"users": views})
}

type createUserRequest struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Phone     string      `json:"phone"`
	Address   string      `json:"address"`
	Role      domain.Role `json:"role"`
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	u, err := a.Users.Create(r.Context(), service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Address:   req.Address,
		Role:      req.Role,
	})
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, "User created.", map[string]any{"user": u.Public()})
}

type updateUserRequest struct {
	Role             domain.Role `json:"role"`
	Suspended        *bool       `json:"suspended"`
	SuspensionReason string      `json:"suspensionReason"`
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	u, err := a.Users.Update(r.Context(), r.PathValue("id"), service.AdminUpdate{
		Role:             req.Role,
		Suspended:        req.Suspended,
		SuspensionReason: req.SuspensionReason,
	})
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "User updated.", map[string]any{"user": u.Public()})
}
