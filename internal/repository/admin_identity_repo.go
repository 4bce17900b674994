package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tourindo/tourism_api/internal/models"
)

// adminColumns is the select list shared by all identity queries.
const adminColumns = `id, email, password_hash, full_name, role, is_approved,
	organization_id, organization_name, organization_type, parent_admin_id,
	approved_by, approved_at, requested_at, request_reason,
	rejected, rejected_reason, must_change_password, avatar_url,
	last_login_at, created_at, updated_at`

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// AdminIdentityRepository provides data access methods for the
// admin_identities table. It performs no authorization or workflow rules;
// those live in the services.
type AdminIdentityRepository struct {
	db *sqlx.DB
}

// NewAdminIdentityRepository creates a new AdminIdentityRepository.
func NewAdminIdentityRepository(db *sqlx.DB) *AdminIdentityRepository {
	return &AdminIdentityRepository{db: db}
}

// DB exposes the underlying handle so services can open transactions that
// span identity mutations and audit writes.
func (r *AdminIdentityRepository) DB() *sqlx.DB { return r.db }

// GetByID fetches one identity. Returns sql.ErrNoRows when absent.
func (r *AdminIdentityRepository) GetByID(ctx context.Context, id string) (*models.AdminIdentity, error) {
	var admin models.AdminIdentity
	err := r.db.GetContext(ctx, &admin,
		`SELECT `+adminColumns+` FROM admin_identities WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByEmail fetches one identity by normalized email.
func (r *AdminIdentityRepository) GetByEmail(ctx context.Context, email string) (*models.AdminIdentity, error) {
	var admin models.AdminIdentity
	err := r.db.GetContext(ctx, &admin,
		`SELECT `+adminColumns+` FROM admin_identities WHERE email = $1`, email)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// ListPending returns registration requests awaiting review, oldest first
// so the queue is worked in arrival order.
func (r *AdminIdentityRepository) ListPending(ctx context.Context) ([]models.AdminIdentity, error) {
	var admins []models.AdminIdentity
	err := r.db.SelectContext(ctx, &admins,
		`SELECT `+adminColumns+` FROM admin_identities
		 WHERE role = 'pending' AND rejected = FALSE
		 ORDER BY requested_at ASC`)
	return admins, err
}

// ListOrganizationAdmins returns all active organization admins.
func (r *AdminIdentityRepository) ListOrganizationAdmins(ctx context.Context) ([]models.AdminIdentity, error) {
	var admins []models.AdminIdentity
	err := r.db.SelectContext(ctx, &admins,
		`SELECT `+adminColumns+` FROM admin_identities
		 WHERE role = 'org_admin'
		 ORDER BY organization_name ASC, created_at ASC`)
	return admins, err
}

// ListStaff returns the staff members under one organization admin.
func (r *AdminIdentityRepository) ListStaff(ctx context.Context, parentID string) ([]models.AdminIdentity, error) {
	var admins []models.AdminIdentity
	err := r.db.SelectContext(ctx, &admins,
		`SELECT `+adminColumns+` FROM admin_identities
		 WHERE role = 'org_staff' AND parent_admin_id = $1
		 ORDER BY created_at ASC`, parentID)
	return admins, err
}

// CountStaff counts staff members under one organization admin.
func (r *AdminIdentityRepository) CountStaff(ctx context.Context, parentID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM admin_identities
		 WHERE role = 'org_staff' AND parent_admin_id = $1`, parentID)
	return count, err
}

// Create inserts a new identity. The insert is idempotent on the id so the
// registration saga can safely retry its second step: a replay with the
// same credential id inserts nothing and reports created=false.
func (r *AdminIdentityRepository) Create(ctx context.Context, q sqlx.ExtContext, admin *models.AdminIdentity) (created bool, err error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO admin_identities
			(id, email, password_hash, full_name, role, is_approved,
			 organization_id, organization_name, organization_type,
			 parent_admin_id, requested_at, request_reason, must_change_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		admin.ID, admin.Email, admin.PasswordHash, admin.FullName, admin.Role,
		admin.IsApproved, admin.OrganizationID, admin.OrganizationName,
		admin.OrganizationType, admin.ParentAdminID, admin.RequestedAt,
		admin.RequestReason, admin.MustChangePass)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkApproved promotes a pending request to an active organization admin.
// Caller runs this inside the same transaction as the audit write.
func (r *AdminIdentityRepository) MarkApproved(ctx context.Context, q sqlx.ExtContext, id, approverID string, approvedAt time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE admin_identities
		SET role = 'org_admin', is_approved = TRUE,
		    approved_by = $2, approved_at = $3, updated_at = NOW()
		WHERE id = $1 AND role = 'pending' AND rejected = FALSE`,
		id, approverID, approvedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkRejected moves a pending request to its terminal rejected state. The
// record is retained so the audit trail stays meaningful and the email
// cannot silently re-register without trace.
func (r *AdminIdentityRepository) MarkRejected(ctx context.Context, q sqlx.ExtContext, id, reason string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE admin_identities
		SET rejected = TRUE, rejected_reason = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'pending' AND rejected = FALSE`,
		id, reason)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteStaffByParent removes every staff identity under a parent and
// returns the removed ids. Part of the cascade transaction.
func (r *AdminIdentityRepository) DeleteStaffByParent(ctx context.Context, q sqlx.ExtContext, parentID string) ([]string, error) {
	rows, err := q.QueryxContext(ctx, `
		DELETE FROM admin_identities
		WHERE role = 'org_staff' AND parent_admin_id = $1
		RETURNING id`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes one identity record.
func (r *AdminIdentityRepository) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM admin_identities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateProfile updates self-editable profile fields.
func (r *AdminIdentityRepository) UpdateProfile(ctx context.Context, id, fullName, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admin_identities
		SET full_name = $2, email = $3, updated_at = NOW()
		WHERE id = $1`, id, fullName, email)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateAvatar stores the avatar location for an identity.
func (r *AdminIdentityRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admin_identities
		SET avatar_url = $2, updated_at = NOW()
		WHERE id = $1`, id, avatarURL)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePassword replaces the stored credential hash and clears the
// first-login password-change flag.
func (r *AdminIdentityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admin_identities
		SET password_hash = $2, must_change_password = FALSE, updated_at = NOW()
		WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// TouchLastLogin records a successful login. Best effort; callers may
// ignore the error.
func (r *AdminIdentityRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admin_identities SET last_login_at = $2, updated_at = NOW()
		WHERE id = $1`, id, at)
	return err
}

// Exists reports whether an identity record is present. Consumed by the
// session reaper.
func (r *AdminIdentityRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM admin_identities WHERE id = $1)`, id)
	return exists, err
}

// requireRow converts a zero-row update/delete into sql.ErrNoRows so
// services can translate it to a not-found failure.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
