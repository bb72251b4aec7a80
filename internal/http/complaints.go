package http

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/service"
	"github.com/DSAshv/urbanAssist/internal/store"
)

// complaintView is the wire shape of a complaint.
type complaintView struct {
	ID                 string             `json:"id"`
	ComplaintID        string             `json:"complaintId"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Category           domain.Category    `json:"category"`
	Status             domain.Status      `json:"status"`
	Priority           domain.Priority    `json:"priority"`
	Location           domain.Location    `json:"location"`
	Images             []string           `json:"images"`
	UserID             string             `json:"userId"`
	AssignedDepartment string             `json:"assignedDepartment"`
	AssignedTo         string             `json:"assignedTo,omitempty"`
	ResolutionDetails  *domain.Resolution `json:"resolutionDetails,omitempty"`
	CreatedAt          string             `json:"createdAt"`
	UpdatedAt          string             `json:"updatedAt"`
}

func viewComplaint(c domain.Complaint) complaintView {
	return complaintView{
		ID:                 c.ID,
		ComplaintID:        c.Code,
		Title:              c.Title,
		Description:        c.Description,
		Category:           c.Category,
		Status:             c.Status,
		Priority:           c.Priority,
		Location:           c.Location,
		Images:             c.Images,
		UserID:             c.UserID,
		AssignedDepartment: c.AssignedDepartment,
		AssignedTo:         c.AssignedTo,
		ResolutionDetails:  c.Resolution,
		CreatedAt:          c.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:          c.UpdatedAt.UTC().Format(timeLayout),
	}
}

func viewComplaints(cs []domain.Complaint) []complaintView {
	out := make([]complaintView, 0, len(cs))
	for _, c := range cs {
		out = append(out, viewComplaint(c))
	}
	return out
}

type commentView struct {
	ID        string         `json:"id"`
	Body      string         `json:"text"`
	Author    domain.UserRef `json:"author"`
	CreatedAt string         `json:"createdAt"`
}

func viewComment(c domain.CommentWithAuthor) commentView {
	return commentView{
		ID:        c.ID,
		Body:      c.Body,
		Author:    c.Author,
		CreatedAt: c.CreatedAt.UTC().Format(timeLayout),
	}
}

type createComplaintRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Priority    domain.Priority `json:"priority"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Address     string          `json:"address"`
}

func (a *API) handleCreateComplaint(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var (
		req    createComplaintRequest
		images []string
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			a.fail(w, http.StatusBadRequest, "Invalid multipart form.", err)
			return
		}

		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Category = domain.Category(r.FormValue("category"))
		req.Priority = domain.Priority(r.FormValue("priority"))
		req.Address = r.FormValue("address")
		req.Latitude, _ = strconv.ParseFloat(r.FormValue("latitude"), 64)
		req.Longitude, _ = strconv.ParseFloat(r.FormValue("longitude"), 64)

		var err error
		images, err = a.Uploads.SaveImages(r, actor.ID)
		if err != nil {
			a.fail(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
	} else {
		if err := decodeJSON(r, &req); err != nil {
			a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
			return
		}
	}

	c, err := a.Complaints.Create(r.Context(), actor, service.CreateComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Location: domain.Location{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Address:   req.Address,
		},
		Images: images,
	})
	if err != nil {
		// The complaint was never persisted, so the stored images would be
		// orphans.
		a.Uploads.Remove(images)
		a.failFrom(w, r, err)
		return
	}

	a.ok(w, http.StatusCreated, "Complaint submitted.", map[string]any{
		"complaint": viewComplaint(c),
	})
}

func (a *API) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	f := store.ComplaintFilter{
		Category: domain.Category(q.Get("category")),
		Status:   domain.Status(q.Get("status")),
		Priority: domain.Priority(q.Get("priority")),
		SortBy:   q.Get("sortBy"),
		SortAsc:  q.Get("order") == "asc",
		Page:     page,
		Limit:    limit,
	}

	items, total, applied, err := a.Complaints.List(r.Context(), actor, f)
	if err != nil {
		a.failFrom(w, r, err)
		return
	}

	a.okPaged(w, "", map[string]any{
		"complaints": viewComplaints(items),
	}, newPagination(total, applied.Page, applied.Limit))
}

func (a *API) handleNearbyComplaints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		a.fail(w, http.StatusBadRequest, "latitude and longitude are required.", nil)
		return
	}
	radius, _ := strconv.ParseFloat(q.Get("radius"), 64)

	results, err := a.Complaints.Nearby(r.Context(), lat, lon, radius)
	if err != nil {
		a.failFrom(w, r, err)
		return
	}

	type nearbyView struct {
		complaintView
		DistanceKm float64 `json:"distanceKm"`
	}
	views := make([]nearbyView, 0, len(results))
	for _, res := range results {
		views = append(views, nearbyView{
			complaintView: viewComplaint(res.Complaint),
			DistanceKm:    res.DistanceKm,
		})
	}

	a.ok(w, http.StatusOK, "", map[string]any{"complaints": views})
}

func (a *API) handleGetComplaint(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	c, comments, err := a.Complaints.GetByID(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		a.failFrom(w, r, err)
		return
	}

	views := make([]commentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, viewComment(cm))
	}
	a.ok(w, http.StatusOK, "", map[string]any{
		"complaint": viewComplaint(c),
		"comments":  views,
	})
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (a *API) handleAddComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req addCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "Invalid request body.", err)
		return
	}

	comment, err := a.Complaints.AddComment(r.Context(), actor, r.PathValue("id"), req.Text)
	if err != nil {
		a.failFrom(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, "Comment added.", map[string]any{
		"comment": viewComment(comment),
	})
}
