package domain

// Role classifies a user for route access.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleTrader Role = "trader"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleTrader:
		return true
	}
	return false
}

// ResolveRole reads the role from the user's metadata. A nil user, a missing
// role or any value outside the enumeration resolves to RoleUser, so the
// result can never escalate to admin by accident.
func ResolveRole(u *User) Role {
	if u == nil {
		return RoleUser
	}
	r := Role(u.MetaString(MetaRole))
	if !r.Valid() {
		return RoleUser
	}
	return r
}

// IsAdmin reports whether u resolves to RoleAdmin.
func IsAdmin(u *User) bool {
	return ResolveRole(u) == RoleAdmin
}

// IsRegularUser reports whether u resolves to a non-admin role.
func IsRegularUser(u *User) bool {
	r := ResolveRole(u)
	return r == RoleUser || r == RoleTrader
}
