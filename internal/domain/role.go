package domain

// Role is the capability tag of a connection. A connection starts as
// RoleUnset and acquires RoleMaster or RoleViewer through a join.
type Role string

const (
	RoleUnset  Role = ""
	RoleMaster Role = "master"
	RoleViewer Role = "viewer"
)

// ParseRole maps the wire string onto the closed role set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMaster:
		return RoleMaster, true
	case RoleViewer:
		return RoleViewer, true
	}
	return RoleUnset, false
}

// CanPresent reports whether this role may broadcast documents and toggle
// fullscreen. All role gates go through this predicate.
func (r Role) CanPresent() bool { return r == RoleMaster }

// Joined reports whether the connection has completed a join.
func (r Role) Joined() bool { return r == RoleMaster || r == RoleViewer }
