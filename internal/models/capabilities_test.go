package models

import "testing"

func TestCapabilitiesFor(t *testing.T) {
	super := CapabilitiesFor(RoleSuperAdmin)
	if !super.CanApproveAdmins || !super.CanViewAuditLog {
		t.Fatalf("super admin capabilities wrong: %+v", super)
	}
	if super.CanInviteStaff {
		t.Fatal("super admin does not invite staff directly")
	}

	orgAdmin := CapabilitiesFor(RoleOrgAdmin)
	if !orgAdmin.CanInviteStaff || !orgAdmin.CanManageOwnStaff || !orgAdmin.CanManageContent {
		t.Fatalf("org admin capabilities wrong: %+v", orgAdmin)
	}
	if orgAdmin.CanApproveAdmins {
		t.Fatal("org admin must not approve registrations")
	}

	staff := CapabilitiesFor(RoleOrgStaff)
	if !staff.CanManageContent {
		t.Fatalf("staff capabilities wrong: %+v", staff)
	}
	if staff.CanInviteStaff || staff.CanManageOwnStaff {
		t.Fatal("staff has no management capabilities")
	}

	if CapabilitiesFor(RolePending) != (Capabilities{}) {
		t.Fatal("pending accounts have no capabilities")
	}
	if CapabilitiesFor(AdminRole("made_up")) != (Capabilities{}) {
		t.Fatal("unknown roles have no capabilities")
	}
}

func TestActive(t *testing.T) {
	cases := []struct {
		name  string
		admin AdminIdentity
		want  bool
	}{
		{"approved org admin", AdminIdentity{Role: RoleOrgAdmin, IsApproved: true}, true},
		{"approved staff", AdminIdentity{Role: RoleOrgStaff, IsApproved: true}, true},
		{"pending", AdminIdentity{Role: RolePending}, false},
		{"approved flag without role", AdminIdentity{Role: RolePending, IsApproved: true}, false},
		{"rejected", AdminIdentity{Role: RoleOrgAdmin, IsApproved: true, Rejected: true}, false},
	}
	for _, tc := range cases {
		if got := tc.admin.Active(); got != tc.want {
			t.Errorf("%s: Active() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []AdminRole{RolePending, RoleOrgAdmin, RoleOrgStaff, RoleSuperAdmin} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false", role)
		}
	}
	if ValidRole(AdminRole("owner")) {
		t.Fatal("unexpected role accepted")
	}
}
