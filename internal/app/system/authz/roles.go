// internal/app/system/authz/roles.go
package authz

import (
	"strings"
)

// Role is a workspace membership role.
type Role string

// The closed set of workspace roles.
const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
	RoleTeacher Role = "teacher" // may only modify tasks they created
)

// legacyTeacher is the label older workspaces stored for the teacher role.
const legacyTeacher = "lehrer"

// AllRoles lists every valid role in descending privilege order.
var AllRoles = []Role{RoleOwner, RoleAdmin, RoleMember, RoleTeacher}

// ParseRole converts a stored role string to a Role.
// Unknown or empty values are not a role (ok=false) so callers fail closed.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, true
	case "admin":
		return RoleAdmin, true
	case "member":
		return RoleMember, true
	case "teacher", legacyTeacher:
		return RoleTeacher, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleTeacher:
		return true
	}
	return false
}

// IsManager reports whether r administers the workspace (owner or admin).
func (r Role) IsManager() bool {
	return r == RoleOwner || r == RoleAdmin
}

func (r Role) String() string { return string(r) }
