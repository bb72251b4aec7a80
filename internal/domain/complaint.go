package domain

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// StatusText is the human-readable form used in notification messages.
func (s Status) StatusText() string {
	switch s {
	case StatusPending:
		return "Pending Review"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusRejected:
		return "Rejected"
	}
	return "Unknown"
}

type Category string

const (
	CategoryRoad        Category = "road"
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategoryGarbage     Category = "garbage"
	CategoryStreetlight Category = "streetlight"
	CategorySewage      Category = "sewage"
	CategoryOther       Category = "other"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryRoad, CategoryWater, CategoryElectricity, CategoryGarbage,
		CategoryStreetlight, CategorySewage, CategoryOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Location is a GeoJSON-style point plus the free-text address the citizen
// entered. Coordinates are [longitude, latitude] on the wire.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Address   string  `json:"address"`
}

// Resolution records how and when a complaint was closed out. Once set it is
// never cleared, even if the complaint later leaves the resolved status; it
// doubles as an audit trail of the last resolution.
type Resolution struct {
	Text       string    `json:"text"`
	ResolvedBy string    `json:"resolvedBy"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

type Complaint struct {
	ID   string
	Code string // short public reference, e.g. "7GQ0X2MKRD"

	Title       string
	Description string
	Category    Category
	Status      Status
	Priority    Priority

	Location Location
	Images   []string

	UserID             string
	AssignedDepartment string
	AssignedTo         string // user id, empty when unassigned

	Resolution *Resolution

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is an append-only note on a complaint. Comments cannot be edited
// or deleted.
type Comment struct {
	ID          string
	ComplaintID string
	AuthorID    string
	Body        string
	CreatedAt   time.Time
}

// UserRef is the minimal identity attached to comments and complaint
// listings so clients don't need a second fetch.
type UserRef struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

// CommentWithAuthor pairs a comment with its resolved author identity.
type CommentWithAuthor struct {
	Comment
	Author UserRef
}
