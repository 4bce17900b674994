package models

import "time"

// AdminRole classifies an operator account within the dashboard.
type AdminRole string

const (
	RolePending    AdminRole = "pending"
	RoleOrgAdmin   AdminRole = "org_admin"
	RoleOrgStaff   AdminRole = "org_staff"
	RoleSuperAdmin AdminRole = "super_admin"
)

// ValidRole reports whether r is one of the known admin roles.
func ValidRole(r AdminRole) bool {
	switch r {
	case RolePending, RoleOrgAdmin, RoleOrgStaff, RoleSuperAdmin:
		return true
	}
	return false
}

// AdminIdentity is the directory record for one operator account.
// The password hash is persisted alongside the record but never serialized.
type AdminIdentity struct {
	ID               string     `db:"id" json:"id"`
	Email            string     `db:"email" json:"email"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	FullName         string     `db:"full_name" json:"fullName"`
	Role             AdminRole  `db:"role" json:"role"`
	IsApproved       bool       `db:"is_approved" json:"isApproved"`
	OrganizationID   string     `db:"organization_id" json:"organizationId"`
	OrganizationName string     `db:"organization_name" json:"organizationName"`
	OrganizationType string     `db:"organization_type" json:"organizationType"`
	ParentAdminID    *string    `db:"parent_admin_id" json:"parentAdminId,omitempty"`
	ApprovedBy       *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	RequestedAt      *time.Time `db:"requested_at" json:"requestedAt,omitempty"`
	RequestReason    string     `db:"request_reason" json:"requestReason,omitempty"`
	Rejected         bool       `db:"rejected" json:"rejected"`
	RejectedReason   string     `db:"rejected_reason" json:"rejectedReason,omitempty"`
	MustChangePass   bool       `db:"must_change_password" json:"mustChangePassword"`
	AvatarURL        string     `db:"avatar_url" json:"avatarUrl,omitempty"`
	LastLoginAt      *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the account may hold an authenticated session.
// Pending and rejected registrations hold a backend session but are not
// considered signed in by the dashboard.
func (a *AdminIdentity) Active() bool {
	return a.IsApproved && a.Role != RolePending && !a.Rejected
}
