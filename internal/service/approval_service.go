package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/utils"
)

// ApprovalService moves a self-registered pending request to an active
// organization admin or a terminal rejection. Approved and rejected are
// both terminal; no transition leaves either state.
type ApprovalService struct {
	adminRepo *repository.AdminIdentityRepository
	auditSvc  *AuditService
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(adminRepo *repository.AdminIdentityRepository, auditSvc *AuditService) *ApprovalService {
	return &ApprovalService{adminRepo: adminRepo, auditSvc: auditSvc}
}

// Approve promotes a pending registration to org_admin. Only a super
// admin may approve; on any precondition failure the target is left
// unchanged. The role change and its audit entry commit together.
func (s *ApprovalService) Approve(ctx context.Context, pendingAdminID, approverID string) (*models.AdminIdentity, error) {
	if err := s.requireSuperAdmin(ctx, approverID); err != nil {
		return nil, err
	}

	target, err := s.getTarget(ctx, pendingAdminID)
	if err != nil {
		return nil, err
	}
	if target.Role != models.RolePending || target.Rejected {
		return nil, utils.ErrNotPending
	}

	now := time.Now()
	tx, err := s.adminRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to start approval transaction")
	}
	defer tx.Rollback()

	if err := s.adminRepo.MarkApproved(ctx, tx, pendingAdminID, approverID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race with another terminal transition.
			return nil, utils.ErrNotPending
		}
		return nil, utils.WrapTransient(err, "Failed to approve registration")
	}
	if err := s.auditSvc.RecordTx(ctx, tx, approverID, models.ActionApproveAdmin, &pendingAdminID, map[string]string{
		"email":        target.Email,
		"organization": target.OrganizationName,
	}); err != nil {
		return nil, utils.WrapTransient(err, "Failed to record approval")
	}
	if err := tx.Commit(); err != nil {
		return nil, utils.WrapTransient(err, "Failed to commit approval")
	}

	log.Info().
		Str("admin_id", pendingAdminID).
		Str("approved_by", approverID).
		Msg("Registration approved")

	return s.adminRepo.GetByID(ctx, pendingAdminID)
}

// Reject moves a pending registration to its terminal rejected state. The
// record is retained with the reason so the trail stays meaningful.
func (s *ApprovalService) Reject(ctx context.Context, pendingAdminID, approverID, reason string) error {
	if len(reason) == 0 {
		return utils.NewError(utils.KindValidation, "REASON_REQUIRED", "A rejection reason is required")
	}
	if err := s.requireSuperAdmin(ctx, approverID); err != nil {
		return err
	}

	target, err := s.getTarget(ctx, pendingAdminID)
	if err != nil {
		return err
	}
	if target.Role != models.RolePending || target.Rejected {
		return utils.ErrNotPending
	}

	tx, err := s.adminRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return utils.WrapTransient(err, "Failed to start rejection transaction")
	}
	defer tx.Rollback()

	if err := s.adminRepo.MarkRejected(ctx, tx, pendingAdminID, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrNotPending
		}
		return utils.WrapTransient(err, "Failed to reject registration")
	}
	if err := s.auditSvc.RecordTx(ctx, tx, approverID, models.ActionRejectAdmin, &pendingAdminID, map[string]string{
		"email":  target.Email,
		"reason": reason,
	}); err != nil {
		return utils.WrapTransient(err, "Failed to record rejection")
	}
	if err := tx.Commit(); err != nil {
		return utils.WrapTransient(err, "Failed to commit rejection")
	}

	log.Info().
		Str("admin_id", pendingAdminID).
		Str("rejected_by", approverID).
		Msg("Registration rejected")

	return nil
}

func (s *ApprovalService) requireSuperAdmin(ctx context.Context, adminID string) error {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrNotAuthorized
	}
	if err != nil {
		return utils.WrapTransient(err, "Failed to resolve acting admin")
	}
	if admin.Role != models.RoleSuperAdmin {
		return utils.ErrNotAuthorized
	}
	return nil
}

func (s *ApprovalService) getTarget(ctx context.Context, id string) (*models.AdminIdentity, error) {
	target, err := s.adminRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrAdminNotFound
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to fetch registration request")
	}
	return target, nil
}
