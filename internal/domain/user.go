package domain

import "time"

// Role is a closed enum. The legacy frontend referenced a "department-officer"
// role that was never enforced server-side; it is deliberately not part of
// this enum.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether r is a known role value.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string

	PasswordHash string // argon2id encoded, never serialized to clients
	Role         Role

	Active           bool
	Suspended        bool
	SuspensionReason string

	MFAEnabled bool
	MFASecret  string // base32 TOTP seed, write-only from the API's perspective

	// RefreshTokenHash is the SHA-256 fingerprint of the single currently
	// valid refresh token, or empty when logged out. Overwritten on every
	// login and refresh.
	RefreshTokenHash string

	ProfilePicture string
	PushToken      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName is the display name used in notifications.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// PublicUser is the client-safe projection of a User.
type PublicUser struct {
	ID               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	Role             Role   `json:"role"`
	Active           bool   `json:"active"`
	Suspended        bool   `json:"suspended"`
	SuspensionReason string `json:"suspensionReason,omitempty"`
	MFAEnabled       bool   `json:"mfaEnabled"`
	ProfilePicture   string `json:"profilePicture,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

// Public strips credentials and secrets from a User.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Phone:            u.Phone,
		Address:          u.Address,
		Role:             u.Role,
		Active:           u.Active,
		Suspended:        u.Suspended,
		SuspensionReason: u.SuspensionReason,
		MFAEnabled:       u.MFAEnabled,
		ProfilePicture:   u.ProfilePicture,
		CreatedAt:        u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
