package constants

// Default role names. Deployments may rename them through TARGET_*_ROLES config.
const (
	Admin   = "admin"
	Manager = "manager"
	User    = "user"
)

// DefaultRoles is assigned to users created without an explicit role set.
var DefaultRoles = []string{User}
