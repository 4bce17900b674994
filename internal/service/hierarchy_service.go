package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tourindo/tourism_api/internal/cache"
	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/utils"
)

// HierarchyService enforces the parent/child linkage between an
// organization admin and its staff, including cascading deletion.
type HierarchyService struct {
	adminRepo *repository.AdminIdentityRepository
	auditSvc  *AuditService
	sessions  *cache.SessionStore
}

// NewHierarchyService constructs a HierarchyService.
func NewHierarchyService(adminRepo *repository.AdminIdentityRepository, auditSvc *AuditService, sessions *cache.SessionStore) *HierarchyService {
	return &HierarchyService{adminRepo: adminRepo, auditSvc: auditSvc, sessions: sessions}
}

// DeleteResult reports the outcome of a cascade deletion.
type DeleteResult struct {
	DeletedStaffCount int      `json:"deletedStaffCount"`
	RemovedStaffIDs   []string `json:"removedStaffIds,omitempty"`
}

// DeleteOrganizationAdmin removes an organization admin together with all
// of its staff. The cascade and its single audit entry are one
// transaction; a partial outcome is never observable.
func (s *HierarchyService) DeleteOrganizationAdmin(ctx context.Context, adminID, deleterID string) (*DeleteResult, error) {
	deleter, err := s.resolveActor(ctx, deleterID)
	if err != nil {
		return nil, err
	}
	if deleter.Role != models.RoleSuperAdmin {
		return nil, utils.ErrNotAuthorized
	}

	target, err := s.adminRepo.GetByID(ctx, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrAdminNotFound
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to fetch organization admin")
	}
	if target.Role != models.RoleOrgAdmin {
		return nil, utils.NewError(utils.KindConflict, "NOT_ORG_ADMIN", "Target is not an organization admin")
	}

	tx, err := s.adminRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to start cascade transaction")
	}
	defer tx.Rollback()

	staffIDs, err := s.adminRepo.DeleteStaffByParent(ctx, tx, adminID)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to remove staff")
	}
	if err := s.adminRepo.Delete(ctx, tx, adminID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrAdminNotFound
		}
		return nil, utils.WrapTransient(err, "Failed to remove organization admin")
	}
	if err := s.auditSvc.RecordTx(ctx, tx, deleterID, models.ActionDeleteOrgAdmin, &adminID, map[string]any{
		"email":               target.Email,
		"organization":        target.OrganizationName,
		"removed_staff_ids":   staffIDs,
		"removed_staff_count": len(staffIDs),
	}); err != nil {
		return nil, utils.WrapTransient(err, "Failed to record cascade deletion")
	}
	if err := tx.Commit(); err != nil {
		return nil, utils.WrapTransient(err, "Failed to commit cascade deletion")
	}

	// Sessions must not outlive the identity records. Best effort here;
	// the session reaper sweeps up anything missed.
	s.revokeSessions(ctx, append(staffIDs, adminID))

	log.Info().
		Str("admin_id", adminID).
		Str("deleted_by", deleterID).
		Int("staff_removed", len(staffIDs)).
		Msg("Organization admin deleted")

	return &DeleteResult{DeletedStaffCount: len(staffIDs), RemovedStaffIDs: staffIDs}, nil
}

// DeleteStaffMember removes one staff identity. Allowed for a super admin
// or for the staff member's own organization admin. No cascade.
func (s *HierarchyService) DeleteStaffMember(ctx context.Context, staffID, deleterID string) error {
	deleter, err := s.resolveActor(ctx, deleterID)
	if err != nil {
		return err
	}

	staff, err := s.adminRepo.GetByID(ctx, staffID)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrAdminNotFound
	}
	if err != nil {
		return utils.WrapTransient(err, "Failed to fetch staff member")
	}
	if staff.Role != models.RoleOrgStaff {
		return utils.NewError(utils.KindConflict, "NOT_STAFF", "Target is not a staff member")
	}

	isParent := staff.ParentAdminID != nil && *staff.ParentAdminID == deleter.ID
	if deleter.Role != models.RoleSuperAdmin && !isParent {
		return utils.ErrNotAuthorized
	}

	tx, err := s.adminRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return utils.WrapTransient(err, "Failed to start deletion transaction")
	}
	defer tx.Rollback()

	if err := s.adminRepo.Delete(ctx, tx, staffID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrAdminNotFound
		}
		return utils.WrapTransient(err, "Failed to remove staff member")
	}
	if err := s.auditSvc.RecordTx(ctx, tx, deleterID, models.ActionDeleteStaff, &staffID, map[string]string{
		"email": staff.Email,
	}); err != nil {
		return utils.WrapTransient(err, "Failed to record staff deletion")
	}
	if err := tx.Commit(); err != nil {
		return utils.WrapTransient(err, "Failed to commit staff deletion")
	}

	s.revokeSessions(ctx, []string{staffID})

	log.Info().
		Str("staff_id", staffID).
		Str("deleted_by", deleterID).
		Msg("Staff member deleted")

	return nil
}

func (s *HierarchyService) resolveActor(ctx context.Context, adminID string) (*models.AdminIdentity, error) {
	actor, err := s.adminRepo.GetByID(ctx, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrNotAuthorized
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to resolve acting admin")
	}
	return actor, nil
}

func (s *HierarchyService) revokeSessions(ctx context.Context, adminIDs []string) {
	if s.sessions == nil {
		return
	}
	for _, id := range adminIDs {
		if err := s.sessions.RevokeAll(ctx, id); err != nil {
			log.Warn().Err(err).Str("admin_id", id).Msg("Failed to revoke sessions for deleted identity")
		}
	}
}
