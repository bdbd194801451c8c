package types

import "time"

// Role identifies the authorization level of an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleClerk   Role = "clerk"
	RoleOfficer Role = "officer"
)

// ParseRole maps a raw string to a known Role.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleClerk, RoleOfficer:
		return Role(raw), true
	default:
		return "", false
	}
}

// Agencies is the fixed set of reporting jurisdictions an account and a
// citation may belong to.
var Agencies = map[string]string{
	"agency_1": "Agency 1",
	"agency_2": "Agency 2",
	"agency_3": "Agency 3",
	"agency_4": "Agency 4",
}

// ValidAgency reports whether code is a known agency.
func ValidAgency(code string) bool {
	_, ok := Agencies[code]
	return ok
}

// Account represents a user of the system.
// A single table backs all roles; the Role column distinguishes behavior
// and Badge is only meaningful for officers.
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Email is the unique login identifier. The domain part is stored
	// lowercase.
	Email string `json:"email" db:"email"`

	// Name is the account's display name.
	Name string `json:"name" db:"name"`

	// Agency is the reporting jurisdiction the account belongs to.
	Agency string `json:"agency" db:"agency"`

	// Role indicates the account's authorization level.
	Role Role `json:"role" db:"role"`

	// Badge is the officer's badge number. It is nil for clerks and
	// admins and unique across officers when set.
	Badge *int `json:"badge,omitempty" db:"badge"`

	// IsStaff marks accounts with administrative capability.
	IsStaff bool `json:"is_staff" db:"is_staff"`

	// IsActive marks accounts eligible to log in.
	IsActive bool `json:"is_active" db:"is_active"`

	// IsSuperuser marks accounts with unrestricted capability.
	IsSuperuser bool `json:"is_superuser" db:"is_superuser"`

	// PasswordHash stores the bcrypt hash of the account's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
