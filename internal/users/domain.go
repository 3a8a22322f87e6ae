package users

import "github.com/meridian-admin/meridian/internal/roles"

// User represents a managed account. Identifiers are assigned by the
// back-office API; the console never generates them.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	RoleID   string `json:"roleId"`
	IsActive bool   `json:"isActive"`

	// Role is resolved locally against the fetched role list. Nil when the
	// referenced role is not in the list; the UI renders "No role".
	Role *roles.Role `json:"-"`
}

// RoleName returns the resolved role name or a neutral label.
func (u User) RoleName() string {
	if u.Role == nil {
		return "No role"
	}
	return u.Role.Name
}

// Input carries the user create/update payload. Password is omitted from
// the wire body when blank so an edit never overwrites a stored password.
type Input struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	RoleID   string `json:"roleId"`
	Password string `json:"password,omitempty"`
}
