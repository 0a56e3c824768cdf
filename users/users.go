package users

import "slices"

// RoleType is the role the DocHub service assigns to an account.
type RoleType string

const (
	RoleStudent   RoleType = "student"   // Browses, downloads and favorites materials
	RoleCommittee RoleType = "committee" // Uploads and edits materials for a class
	RoleAdmin     RoleType = "admin"     // Moderates content, users and settings
)

// Valid reports whether r is one of the roles the service issues.
func (r RoleType) Valid() bool {
	switch r {
	case RoleStudent, RoleCommittee, RoleAdmin:
		return true
	}
	return false
}

type StatusType string

const (
	StatusActive StatusType = "active"
	StatusBanned StatusType = "banned"
)

func (s StatusType) Valid() bool {
	return s == StatusActive || s == StatusBanned
}

type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	RealName    string     `json:"real_name,omitempty"`
	Role        RoleType   `json:"role"`
	Status      StatusType `json:"status,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Major       string     `json:"major,omitempty"`
	Class       string     `json:"class,omitempty"`
	LastLoginAt string     `json:"last_login_at,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
}

// DisplayName prefers the real name and falls back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.RealName != "" {
		return u.RealName
	}
	return u.Username
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsCommittee is true for committee members and admins.
func (u *User) IsCommittee() bool {
	return u != nil && (u.Role == RoleCommittee || u.Role == RoleAdmin)
}

func (u *User) IsBanned() bool {
	return u != nil && u.Status == StatusBanned
}

// HasRole reports whether the user's role is one of roles. A nil user has no role.
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	return slices.Contains(roles, u.Role)
}

// Clone returns a copy that is safe to hand out of a locked section.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
