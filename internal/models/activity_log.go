package models

import (
	"encoding/json"
	"time"
)

// ActivityAction is the closed set of auditable privileged actions.
type ActivityAction string

const (
	ActionLogin          ActivityAction = "login"
	ActionLogout         ActivityAction = "logout"
	ActionInviteStaff    ActivityAction = "invite_staff"
	ActionApproveAdmin   ActivityAction = "approve_admin"
	ActionRejectAdmin    ActivityAction = "reject_admin"
	ActionDeleteStaff    ActivityAction = "delete_staff"
	ActionDeleteOrgAdmin ActivityAction = "delete_org_admin"
	ActionUpdateProfile  ActivityAction = "update_profile"
	ActionChangePassword ActivityAction = "change_password"
)

// ActivityLogEntry is one append-only audit record. Entries are never
// mutated or individually deleted.
type ActivityLogEntry struct {
	ID           int64           `db:"id" json:"id"`
	AdminID      string          `db:"admin_id" json:"adminId"`
	Action       ActivityAction  `db:"action" json:"action"`
	TargetUserID *string         `db:"target_user_id" json:"targetUserId,omitempty"`
	Details      json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}
