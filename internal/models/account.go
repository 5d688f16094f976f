package models

import (
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

// Role constants
const (
	RoleAdmin Role = "admin"
	RolePIN   Role = "pin" // person in need, creates help requests
	RoleCSR   Role = "csr" // reviewer, shortlists and matches requests
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RolePIN, RoleCSR}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePIN, RoleCSR:
		return true
	default:
		return false
	}
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Account is a login identity. Accounts are never deleted, only suspended.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Age          int       `json:"age"`
	PhoneNumber  string    `json:"phone_number"`
	Role         Role      `json:"role"`
	ProfileID    int64     `json:"profile_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Non-DB field, populated via JOIN for display
	ProfileName string `json:"profile_name,omitempty"`
}

// IsAdmin returns true if the account is an administrator.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsPIN returns true if the account creates help requests.
func (a *Account) IsPIN() bool {
	return a.Role == RolePIN
}

// IsCSR returns true if the account reviews help requests.
func (a *Account) IsCSR() bool {
	return a.Role == RoleCSR
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	Name      string // case-insensitive substring
	ProfileID *int64
	Page      PageRequest
}

// AccountStats holds the admin dashboard counters.
type AccountStats struct {
	Total     int `json:"total_users"`
	Active    int `json:"active_users"`
	Suspended int `json:"suspended_users"`
	Profiles  int `json:"total_profiles"`
}
