package models

import "strings"

// Role identifies which dashboard a user may open.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleWalker Role = "walker"
	RoleAdmin  Role = "admin"
)

// ParseRole normalizes free-form input into a Role. Unknown values are returned as-is
// so callers can reject them explicitly.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleWalker, RoleAdmin:
		return true
	}
	return false
}

// Pet belongs to exactly one owner and lives inside that owner's record.
type Pet struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Notes string `json:"notes"`
}

// User is the stored account record. It maps to one element of the `users` collection.
// Active is a pointer so that records written without the flag still count as active.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Role         Role     `json:"role"`
	Active       *bool    `json:"active,omitempty"`
	DistanceKm   *float64 `json:"distanceKm"`
	Availability string   `json:"availability"`
	Bio          string   `json:"bio"`
	Phone        string   `json:"phone"`
	Pets         []Pet    `json:"pets"`
}

// IsActive treats a missing flag as active; only an explicit false disables the account.
func (u User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicProfile is the password-free view of a user that may leave the core:
// it is what the replication sink receives and what dashboards render.
type PublicProfile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         Role     `json:"role"`
	Active       bool     `json:"active"`
	DistanceKm   *float64 `json:"distanceKm"`
	Availability string   `json:"availability"`
	Bio          string   `json:"bio"`
	Phone        string   `json:"phone"`
	Pets         []Pet    `json:"pets"`
}

// Public strips the password and resolves defaults.
func (u User) Public() PublicProfile {
	pets := u.Pets
	if pets == nil {
		pets = []Pet{}
	}
	return PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Active:       u.IsActive(),
		DistanceKm:   u.DistanceKm,
		Availability: u.Availability,
		Bio:          u.Bio,
		Phone:        u.Phone,
		Pets:         pets,
	}
}

// Bool returns a pointer to v; used for the Active flag.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v; used for DistanceKm.
func Float(v float64) *float64 { return &v }
