package entities

import "strings"

// Role is the explicit capability enumeration. It is resolved once per
// request by the transport layer; authorization checks compare roles
// exhaustively instead of probing profile attributes.
type Role string

const (
	RoleVoter      Role = "voter"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole maps a transport-level role string onto the enum. Unknown
// or empty values degrade to the least-privileged role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleVoter
	}
}

// Actor is the resolved caller identity for one request.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// CanManage reports whether the actor may administer the election:
// superadmins manage everything, admins manage elections they created.
func (a Actor) CanManage(election Election) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.Role == RoleAdmin && election.CreatedBy != "" && election.CreatedBy == a.UserID
}
