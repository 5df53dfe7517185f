package registry

import "testing"

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role string
		want Capabilities
	}{
		{RoleAdmin, Capabilities{ManageUsers: true}},
		{RoleDoctor, Capabilities{DoctorFields: true}},
		{RoleNurse, Capabilities{}},
		{RoleUser, Capabilities{}},
	}
	for _, tc := range cases {
		if got := RoleCapabilities(tc.role); got != tc.want {
			t.Errorf("%s: expected %+v, got %+v", tc.role, tc.want, got)
		}
	}
}

func TestRoleCapabilities_UnknownRolesGetLeastPrivilege(t *testing.T) {
	for _, role := range []string{"", "superadmin", "ADMIN", "root", "doctor "} {
		if got := RoleCapabilities(role); got != (Capabilities{}) {
			t.Errorf("%q: expected no capabilities, got %+v", role, got)
		}
	}
}

func TestRoleHelpers(t *testing.T) {
	if !CanManageUsers(RoleAdmin) || CanManageUsers(RoleDoctor) {
		t.Fatal("only admins manage accounts")
	}
	if !RequiresDoctorFields(RoleDoctor) || RequiresDoctorFields(RoleNurse) {
		t.Fatal("only doctor profiles carry license fields")
	}
}
