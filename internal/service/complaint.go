package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/notify"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/geo"
	"github.com/DSAshv/urbanAssist/pkg/idx"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000

	defaultNearbyRadiusKm = 5.0
	nearbyResultCap       = 50
	// Bounding-box prefilter over-fetches because box corners lie outside
	// the circle; the exact haversine check trims the rest.
	nearbyPrefilterLimit = 200

	codeRetries = 5

	defaultResolutionText = "Issue resolved"
)

// ComplaintService implements the complaint lifecycle: creation, scoped
// listing, the status/assignment state machine, comments, the geospatial
// nearby query and admin statistics. Every user-visible transition dispatches
// a best-effort notification to the submitter.
type ComplaintService struct {
	Store    store.Store
	Notifier Notifier

	Now func() time.Time
}

func (s *ComplaintService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CreateComplaintInput struct {
	Title       string
	Description string
	Category    domain.Category
	Priority    domain.Priority
	Location    domain.Location
	Images      []string
}

func (in *CreateComplaintInput) validate() error {
	switch {
	case in.Title == "":
		return invalidf("title is required")
	case len(in.Title) > maxTitleLen:
		return invalidf("title must be at most %d characters", maxTitleLen)
	case in.Description == "":
		return invalidf("description is required")
	case len(in.Description) > maxDescriptionLen:
		return invalidf("description must be at most %d characters", maxDescriptionLen)
	}

	if in.Category == "" {
		in.Category = domain.CategoryOther
	} else if !domain.ValidCategory(in.Category) {
		return invalidf("unknown category %q", in.Category)
	}

	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	} else if !domain.ValidPriority(in.Priority) {
		return invalidf("unknown priority %q", in.Priority)
	}

	if err := validateCoordinates(in.Location.Latitude, in.Location.Longitude); err != nil {
		return err
	}
	if in.Location.Address == "" {
		return invalidf("address is required")
	}
	return nil
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return invalidf("latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return invalidf("longitude must be between -180 and 180")
	}
	return nil
}

// Create files a new complaint for the actor. New complaints always start
// pending.
func (s *ComplaintService) Create(ctx context.Context, actor domain.User, in CreateComplaintInput) (domain.Complaint, error) {
	if err := in.validate(); err != nil {
		return domain.Complaint{}, err
	}

	c := domain.Complaint{
		ID:                 idx.New().String(),
		Title:              in.Title,
		Description:        in.Description,
		Category:           in.Category,
		Status:             domain.StatusPending,
		Priority:           in.Priority,
		Location:           in.Location,
		Images:             in.Images,
		UserID:             actor.ID,
		AssignedDepartment: "other",
	}

	// Short public codes can collide; regenerate on a unique violation.
	var err error
	for attempt := 0; attempt < codeRetries; attempt++ {
		c.Code, err = idx.NewCode()
		if err != nil {
			return domain.Complaint{}, fmt.Errorf("generate code: %w", err)
		}
		err = s.Store.Complaints().CreateComplaint(ctx, c)
		if !errors.Is(err, store.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("create complaint: %w", err)
	}

	created, err := s.Store.Complaints().GetComplaintByID(ctx, c.ID)
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("reload complaint: %w", err)
	}

	s.Notifier.Dispatch(notify.Notification{
		Email:     actor.Email,
		PushToken: actor.PushToken,
		Subject:   "Complaint " + created.Code + " received",
		Body: "Hi " + actor.FullName() + ", your complaint \"" + created.Title +
			"\" has been received and is pending review. Reference: " + created.Code + ".",
	})

	return created, nil
}

// List returns one page of complaints plus the total for the filter.
// Non-admin actors are always scoped to their own complaints. The returned
// filter carries the normalized pagination actually applied, so callers can
// echo it without re-deriving the clamping.
func (s *ComplaintService) List(ctx context.Context, actor domain.User, f store.ComplaintFilter) ([]domain.Complaint, int, store.ComplaintFilter, error) {
	if actor.Role != domain.RoleAdmin {
		f.UserID = actor.ID
	}
	if f.Category != "" && !domain.ValidCategory(f.Category) {
		return nil, 0, f, invalidf("unknown category %q", f.Category)
	}
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return nil, 0, f, invalidf("unknown status %q", f.Status)
	}
	if f.Priority != "" && !domain.ValidPriority(f.Priority) {
		return nil, 0, f, invalidf("unknown priority %q", f.Priority)
	}

	f = f.Normalized()
	items, total, err := s.Store.Complaints().ListComplaints(ctx, f)
	return items, total, f, err
}

// GetByID fetches one complaint with its comments. Owners and admins only.
func (s *ComplaintService) GetByID(ctx context.Context, actor domain.User, id string) (domain.Complaint, []domain.CommentWithAuthor, error) {
	c, err := s.Store.Complaints().GetComplaintByID(ctx, id)
	if err != nil {
		return domain.Complaint{}, nil, err
	}
	if actor.Role != domain.RoleAdmin && c.UserID != actor.ID {
		return domain.Complaint{}, nil, ErrForbidden
	}

	comments, err := s.Store.Complaints().ListComments(ctx, id)
	if err != nil {
		return domain.Complaint{}, nil, fmt.Errorf("list comments: %w", err)
	}
	return c, comments, nil
}

// AddComment appends a comment to a complaint the actor can read and returns
// it with the author identity already resolved.
func (s *ComplaintService) AddComment(ctx context.Context, actor domain.User, complaintID, body string) (domain.CommentWithAuthor, error) {
	if body == "" {
		return domain.CommentWithAuthor{}, invalidf("comment text is required")
	}

	c, err := s.Store.Complaints().GetComplaintByID(ctx, complaintID)
	if err != nil {
		return domain.CommentWithAuthor{}, err
	}
	if actor.Role != domain.RoleAdmin && c.UserID != actor.ID {
		return domain.CommentWithAuthor{}, ErrForbidden
	}

	comment := domain.Comment{
		ID:          idx.New().String(),
		ComplaintID: complaintID,
		AuthorID:    actor.ID,
		Body:        body,
		CreatedAt:   s.now(),
	}
	if err := s.Store.Complaints().AddComment(ctx, comment); err != nil {
		return domain.CommentWithAuthor{}, fmt.Errorf("add comment: %w", err)
	}

	if actor.ID != c.UserID {
		s.notifyOwner(ctx, c, "New comment on complaint "+c.Code,
			"an update was posted on your complaint \""+c.Title+"\".")
	}

	return domain.CommentWithAuthor{
		Comment: comment,
		Author: domain.UserRef{
			ID:        actor.ID,
			FirstName: actor.FirstName,
			LastName:  actor.LastName,
			Role:      actor.Role,
		},
	}, nil
}

// UpdateStatus moves a complaint to any status. Moving to resolved stamps
// resolution metadata, defaulting the text when no comment is given. The
// status write, resolution stamp and optional comment commit atomically.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor domain.User, id string, status domain.Status, comment string) (domain.Complaint, error) {
	if !domain.ValidStatus(status) {
		return domain.Complaint{}, invalidf("unknown status %q", status)
	}

	c, err := s.Store.Complaints().GetComplaintByID(ctx, id)
	if err != nil {
		return domain.Complaint{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Complaints().UpdateStatus(ctx, id, status); err != nil {
			return err
		}

		if status == domain.StatusResolved {
			text := comment
			if text == "" {
				text = defaultResolutionText
			}
			res := domain.Resolution{
				Text:       text,
				ResolvedBy: actor.ID,
				ResolvedAt: s.now(),
			}
			if err := tx.Complaints().SetResolution(ctx, id, res); err != nil {
				return err
			}
		}

		if comment != "" {
			return tx.Complaints().AddComment(ctx, domain.Comment{
				ID:          idx.New().String(),
				ComplaintID: id,
				AuthorID:    actor.ID,
				Body:        comment,
				CreatedAt:   s.now(),
			})
		}
		return nil
	})
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("update status: %w", err)
	}

	s.notifyOwner(ctx, c, "Complaint "+c.Code+" is now "+status.StatusText(),
		"your complaint \""+c.Title+"\" has been updated to "+status.StatusText()+".")

	return s.Store.Complaints().GetComplaintByID(ctx, id)
}

// Assign routes a complaint to a department and optionally an assignee. A
// pending complaint auto-advances to in-progress; any other status is left
// alone.
func (s *ComplaintService) Assign(ctx context.Context, actor domain.User, id, department, assignedTo, note string) (domain.Complaint, error) {
	if department == "" {
		return domain.Complaint{}, invalidf("department is required")
	}
	if assignedTo != "" {
		if _, err := s.Store.Users().GetUserByID(ctx, assignedTo); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Complaint{}, invalidf("assignee %q does not exist", assignedTo)
			}
			return domain.Complaint{}, fmt.Errorf("load assignee: %w", err)
		}
	}

	c, err := s.Store.Complaints().GetComplaintByID(ctx, id)
	if err != nil {
		return domain.Complaint{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Complaints().UpdateAssignment(ctx, id, department, assignedTo); err != nil {
			return err
		}
		if c.Status == domain.StatusPending {
			if err := tx.Complaints().UpdateStatus(ctx, id, domain.StatusInProgress); err != nil {
				return err
			}
		}
		if note != "" {
			return tx.Complaints().AddComment(ctx, domain.Comment{
				ID:          idx.New().String(),
				ComplaintID: id,
				AuthorID:    actor.ID,
				Body:        note,
				CreatedAt:   s.now(),
			})
		}
		return nil
	})
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("assign complaint: %w", err)
	}

	s.notifyOwner(ctx, c, "Complaint "+c.Code+" assigned",
		"your complaint \""+c.Title+"\" has been assigned to the "+department+" department.")

	return s.Store.Complaints().GetComplaintByID(ctx, id)
}

// NearbyComplaint is a complaint with its great-circle distance from the
// query point.
type NearbyComplaint struct {
	domain.Complaint
	DistanceKm float64
}

// Nearby returns complaints within radiusKm of the point, newest first,
// capped at 50. The index-backed bounding box narrows candidates; the exact
// haversine check decides.
func (s *ComplaintService) Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]NearbyComplaint, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}

	box := geo.BoundingBox(lat, lon, radiusKm)
	candidates, err := s.Store.Complaints().ListWithinBox(ctx, box, nearbyPrefilterLimit)
	if err != nil {
		return nil, fmt.Errorf("nearby prefilter: %w", err)
	}

	results := make([]NearbyComplaint, 0, min(len(candidates), nearbyResultCap))
	for _, c := range candidates {
		d := geo.DistanceKm(lat, lon, c.Location.Latitude, c.Location.Longitude)
		if d > radiusKm {
			continue
		}
		results = append(results, NearbyComplaint{Complaint: c, DistanceKm: d})
		if len(results) == nearbyResultCap {
			break
		}
	}
	return results, nil
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	Total        int                   `json:"total"`
	ByStatus     map[string]int        `json:"byStatus"`
	ByCategory   map[string]int        `json:"byCategory"`
	ByPriority   map[string]int        `json:"byPriority"`
	ByDepartment map[string]int        `json:"byDepartment"`
	Resolution   store.ResolutionStats `json:"resolution"`
}

func (s *ComplaintService) Stats(ctx context.Context) (Stats, error) {
	repo := s.Store.Complaints()

	byStatus, err := repo.CountBy(ctx, store.StatsByStatus)
	if err != nil {
		return Stats{}, fmt.Errorf("stats by status: %w", err)
	}
	byCategory, err := repo.CountBy(ctx, store.StatsByCategory)
	if err != nil {
		return Stats{}, fmt.Errorf("stats by category: %w", err)
	}
	byPriority, err := repo.CountBy(ctx, store.StatsByPriority)
	if err != nil {
		return Stats{}, fmt.Errorf("stats by priority: %w", err)
	}
	byDepartment, err := repo.CountBy(ctx, store.StatsByDepartment)
	if err != nil {
		return Stats{}, fmt.Errorf("stats by department: %w", err)
	}
	resolution, err := repo.ResolutionTimeStats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("resolution stats: %w", err)
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	return Stats{
		Total:        total,
		ByStatus:     byStatus,
		ByCategory:   byCategory,
		ByPriority:   byPriority,
		ByDepartment: byDepartment,
		Resolution:   resolution,
	}, nil
}

func (s *ComplaintService) notifyOwner(ctx context.Context, c domain.Complaint, subject, body string) {
	owner, err := s.Store.Users().GetUserByID(ctx, c.UserID)
	if err != nil {
		return
	}
	s.Notifier.Dispatch(notify.Notification{
		Email:     owner.Email,
		PushToken: owner.PushToken,
		Subject:   subject,
		Body:      "Hi " + owner.FullName() + ", " + body,
	})
}
