package registry

// Roles the registry assigns to accounts. They mirror the server's role
// strings.
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
	RoleUser   = "user"
)

// Capabilities tells interface code what to offer for a role. It is
// advisory: the server enforces authorization on its own regardless of what
// a client renders.
type Capabilities struct {
	// ManageUsers grants the account listing and the activate and
	// deactivate controls.
	ManageUsers bool
	// DoctorFields makes licenseNumber and specialty rendered and required
	// on profile forms.
	DoctorFields bool
}

// RoleCapabilities maps a role to its capabilities. It is total: any role
// string it does not know yields the zero value, the least-privileged
// answer.
func RoleCapabilities(role string) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{ManageUsers: true}
	case RoleDoctor:
		return Capabilities{DoctorFields: true}
	case RoleNurse, RoleUser:
		return Capabilities{}
	default:
		return Capabilities{}
	}
}

// CanManageUsers reports whether role may list accounts and toggle their
// active flag.
func CanManageUsers(role string) bool {
	return RoleCapabilities(role).ManageUsers
}

// RequiresDoctorFields reports whether profile forms for role must collect
// licenseNumber and specialty.
func RequiresDoctorFields(role string) bool {
	return RoleCapabilities(role).DoctorFields
}
