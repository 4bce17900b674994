package models

// Capabilities is the resolved permission set for a role. Handlers consume
// this as data instead of comparing role strings at call sites.
type Capabilities struct {
	CanApproveAdmins  bool `json:"canApproveAdmins"`
	CanManageOwnStaff bool `json:"canManageOwnStaff"`
	CanInviteStaff    bool `json:"canInviteStaff"`
	CanViewAuditLog   bool `json:"canViewAuditLog"`
	CanManageContent  bool `json:"canManageContent"`
}

// CapabilitiesFor maps a role to its capability set. Pending and unknown
// roles resolve to no capabilities.
func CapabilitiesFor(role AdminRole) Capabilities {
	switch role {
	case RoleSuperAdmin:
		return Capabilities{
			CanApproveAdmins:  true,
			CanManageOwnStaff: true,
			CanViewAuditLog:   true,
			CanManageContent:  true,
		}
	case RoleOrgAdmin:
		return Capabilities{
			CanManageOwnStaff: true,
			CanInviteStaff:    true,
			CanManageContent:  true,
		}
	case RoleOrgStaff:
		return Capabilities{
			CanManageContent: true,
		}
	default:
		return Capabilities{}
	}
}
