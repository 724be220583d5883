package types

import "time"

// Roles recognized by the system, ordered from least to most privileged.
const (
	RoleDriver     = "driver"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRole reports whether role is one of the recognized role names.
func ValidRole(role string) bool {
	switch role {
	case RoleDriver, RoleSupervisor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name for the user.
	Username string `json:"username" db:"username"`

	// Fullname is the user's display name.
	Fullname string `json:"fullname" db:"fullname"`

	// Role is one of driver, supervisor, admin, or super_admin.
	Role string `json:"role" db:"role"`

	// EntityID scopes the user's visibility to one organizational entity.
	// Nil for super_admin accounts, which see everything.
	EntityID *int `json:"entity_id,omitempty" db:"entity_id"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
