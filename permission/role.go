package permission

import (
	"slices"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	// RolePending is an account that has registered but not been approved.
	RolePending Role = "pending"
	// RoleVisitor is a regular approved account.
	RoleVisitor Role = "visitor"
	// RoleAdmin manages users and content.
	RoleAdmin Role = "admin"
)

// Roles returns every known role in ascending privilege.
func Roles() []Role {
	return []Role{RolePending, RoleVisitor, RoleAdmin}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(Roles(), r)
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) String() string {
	return string(r)
}
