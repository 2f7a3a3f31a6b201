package identity

// UserRole is the user's role. The set is closed: every access-control
// decision point switches over it exhaustively so a new role fails loudly
// instead of falling through to a permissive default.
type UserRole string

const (
	// RoleAdmin can manage users in addition to member data.
	RoleAdmin UserRole = "admin"
	// RoleUser can operate on member data only.
	RoleUser UserRole = "user"
)

// IsValid checks if the role is one of the predefined valid roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}

// CanManageUsers reports whether the role may execute user administration
// operations.
func (r UserRole) CanManageUsers() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles.
func GetAllRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleUser}
}

// ParseRole safely parses a string into a UserRole type.
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
