package constants

const (
	ViewTargets   = "targets:view"
	WriteTargets  = "targets:write"
	DeleteTargets = "targets:delete"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
type PermissionRoles map[string][]string

// NewPermissionRoles builds the table from configured role lists, falling back to defaults for empty lists.
func NewPermissionRoles(view, write, del []string) PermissionRoles {
	return PermissionRoles{
		ViewTargets:   orDefault(view, []string{Admin, Manager, User}),
		WriteTargets:  orDefault(write, []string{Admin, Manager}),
		DeleteTargets: orDefault(del, []string{Admin}),
	}
}

// Configured reports whether the permission has at least one role.
func (p PermissionRoles) Configured(permission string) bool {
	return len(p[permission]) > 0
}

// AllowedAny returns true if any of roles may perform permission.
func (p PermissionRoles) AllowedAny(permission string, roles []string) bool {
	allowed, ok := p[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
