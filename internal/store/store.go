package store

import (
	"context"
	"errors"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/pkg/geo"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories keep concerns tidy and make it obvious which operations
// participate in a transaction.
type Store interface {
	Users() Users
	Complaints() Complaints

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back on error and
	// committing on nil. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns every user, newest first. Admin directory only.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// UpdateProfile mutates the self-service profile fields. Empty strings
	// in upd leave the corresponding column untouched.
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) error

	UpdateRole(ctx context.Context, userID string, role domain.Role) error

	// SetSuspension suspends or reinstates an account. Suspending also
	// clears active; reinstating restores it and drops the reason.
	SetSuspension(ctx context.Context, userID string, suspended bool, reason string) error

	// UpdateRefreshTokenHash overwrites the single stored refresh token
	// fingerprint. An empty hash logs the user out.
	UpdateRefreshTokenHash(ctx context.Context, userID string, hash string) error

	// UpdateMFASecret stores a pending TOTP secret without enabling MFA.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears both the enabled flag and the secret.
	DisableMFA(ctx context.Context, userID string) error

	UpdatePushToken(ctx context.Context, userID string, token string) error
}

// ProfileUpdate carries the self-service editable fields.
type ProfileUpdate struct {
	FirstName      string
	LastName       string
	Phone          string
	Address        string
	ProfilePicture string
}

// ComplaintFilter scopes and pages a complaint listing.
type ComplaintFilter struct {
	// UserID restricts results to one submitter when non-empty (non-admin
	// callers are always scoped this way).
	UserID string

	Category domain.Category
	Status   domain.Status
	Priority domain.Priority

	// SortBy must be one of the sortable columns; drivers fall back to
	// creation time for anything unknown. SortAsc defaults to newest first.
	SortBy  string
	SortAsc bool

	Page  int // 1-based
	Limit int
}

// Normalized clamps pagination to the supported range: page at least 1,
// limit defaulting to 10 and capped at 100. This is the single place the
// clamping rule lives; services and handlers both rely on it.
func (f ComplaintFilter) Normalized() ComplaintFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	} else if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// ResolutionStats are aggregate resolution times in days over complaints
// that reached resolved with a resolution timestamp.
type ResolutionStats struct {
	Count   int
	AvgDays float64
	MinDays float64
	MaxDays float64
}

// StatsDimension selects the grouping column for complaint counts.
type StatsDimension string

const (
	StatsByStatus     StatsDimension = "status"
	StatsByCategory   StatsDimension = "category"
	StatsByPriority   StatsDimension = "priority"
	StatsByDepartment StatsDimension = "assigned_department"
)

type Complaints interface {
	// CreateComplaint inserts a new complaint. Returns ErrAlreadyExists on
	// a public code collision so the caller can regenerate and retry.
	CreateComplaint(ctx context.Context, c domain.Complaint) error

	GetComplaintByID(ctx context.Context, id string) (domain.Complaint, error)

	// ListComplaints returns one page plus the total row count for the
	// filter (ignoring pagination).
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]domain.Complaint, int, error)

	// ListWithinBox returns complaints inside the bounding box, newest
	// first, capped at limit. Wrapped boxes (geo.Box with MinLon > MaxLon)
	// match both sides of the antimeridian. Callers apply the exact
	// distance check.
	ListWithinBox(ctx context.Context, box geo.Box, limit int) ([]domain.Complaint, error)

	UpdateStatus(ctx context.Context, id string, status domain.Status) error

	// SetResolution stamps resolution metadata. It never clears existing
	// metadata; the resolved-at-least-once audit trail is intentional.
	SetResolution(ctx context.Context, id string, res domain.Resolution) error

	// UpdateAssignment sets the department and, when non-empty, the
	// assignee.
	UpdateAssignment(ctx context.Context, id string, department string, assignedTo string) error

	AddComment(ctx context.Context, c domain.Comment) error

	// ListComments returns a complaint's comments oldest first with author
	// identity resolved.
	ListComments(ctx context.Context, complaintID string) ([]domain.CommentWithAuthor, error)

	// CountBy groups complaint counts by the given dimension.
	CountBy(ctx context.Context, dim StatsDimension) (map[string]int, error)

	ResolutionTimeStats(ctx context.Context) (ResolutionStats, error)
}
