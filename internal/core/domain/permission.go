package domain

// rolePermissions defines the capability strings granted to each role.
// The registry is the authority for the whole hospital platform, so the
// matrix covers resources served by downstream systems as well; routes in
// this service only check the user:* and doctor:* entries.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		"user:create", "user:read", "user:update", "user:delete",
		"doctor:create", "doctor:read", "doctor:update", "doctor:delete",
		"patient:create", "patient:read", "patient:update", "patient:delete",
		"room:create", "room:read", "room:update", "room:delete",
		"admission:create", "admission:read", "admission:update", "admission:delete",
		"system:manage",
	},
	RoleDoctor: {
		"doctor:read", "doctor:update",
		"patient:create", "patient:read", "patient:update",
		"admission:create", "admission:read", "admission:update",
		"room:read",
	},
	RoleNurse: {
		"patient:read", "patient:update",
		"admission:read", "admission:update",
		"room:read",
	},
	RoleUser: {
		"patient:read",
		"doctor:read",
	},
}

// PermissionsForRole returns the capability set granted to role. Unknown
// roles receive the generic staff set, never an empty or elevated one.
func PermissionsForRole(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleUser]
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether role grants the given capability.
func HasPermission(role, permission string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleUser]
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
