package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleEditor     = "editor"
	RoleViewer     = "viewer"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// IsKnownRole reports whether role may be put into an access token.
func IsKnownRole(role string) bool {
	switch role {
	case RoleOwner, RoleEditor, RoleViewer, RoleSuperAdmin:
		return true
	default:
		return false
	}
}
