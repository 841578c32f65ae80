// internal/domain/models/user.go
package models

import (
	"strings"
	"time"
)

// Role is one of the three account kinds the cooperative API issues.
// A role is fixed for the lifetime of a session; changing it requires
// signing in again.
type Role string

const (
	RoleDistrictOfficial  Role = "district_official"
	RoleCooperativeLeader Role = "cooperative_leader"
	RoleMember            Role = "member"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleDistrictOfficial, RoleCooperativeLeader, RoleMember}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Label renders the role the way the navigation bar shows it
// ("district_official" -> "District Official").
func (r Role) Label() string {
	parts := strings.Split(string(r), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// User is the identity record returned by the auth endpoints.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Role          Role      `json:"role"`
	District      *string   `json:"district,omitempty"`
	CooperativeID *string   `json:"cooperative_id,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// DistrictName returns the user's district or "" when none is set.
func (u *User) DistrictName() string {
	if u == nil || u.District == nil {
		return ""
	}
	return *u.District
}

// Registration is the payload for POST /api/auth/register.
type Registration struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Role     Role    `json:"role"`
	District *string `json:"district,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}
