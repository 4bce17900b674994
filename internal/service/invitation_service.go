package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/utils"
)

// InvitationService creates staff identities under an organization admin
// with generated one-time credentials. Invited staff are active
// immediately; trust is delegated from the inviting admin, so there is no
// approval step.
type InvitationService struct {
	adminRepo *repository.AdminIdentityRepository
	auditSvc  *AuditService
}

// NewInvitationService constructs an InvitationService.
func NewInvitationService(adminRepo *repository.AdminIdentityRepository, auditSvc *AuditService) *InvitationService {
	return &InvitationService{adminRepo: adminRepo, auditSvc: auditSvc}
}

// InviteResult carries the created identity and the temporary password.
// The password is returned exactly once and is never stored in
// recoverable form or written to the audit log.
type InviteResult struct {
	Staff        *models.AdminIdentity `json:"staff"`
	TempPassword string                `json:"tempPassword"`
}

// InviteStaff creates a staff identity under the caller's organization.
// The caller must be the organization admin identified by parentAdminID.
func (s *InvitationService) InviteStaff(ctx context.Context, callerID, parentAdminID, email, fullName string) (*InviteResult, error) {
	// Fail fast on malformed input before touching the backend.
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := utils.ValidateFullName(fullName); err != nil {
		return nil, err
	}

	if callerID != parentAdminID {
		return nil, utils.ErrNotAuthorized
	}
	parent, err := s.adminRepo.GetByID(ctx, parentAdminID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrNotAuthorized
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to resolve inviting admin")
	}
	if parent.Role != models.RoleOrgAdmin {
		return nil, utils.ErrNotAuthorized
	}

	tempPassword, err := utils.GenerateTempPassword()
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to generate temporary credential")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to hash temporary credential")
	}

	staff := &models.AdminIdentity{
		ID:               uuid.New().String(),
		Email:            utils.NormalizeEmail(email),
		PasswordHash:     string(hash),
		FullName:         fullName,
		Role:             models.RoleOrgStaff,
		IsApproved:       true,
		OrganizationID:   parent.OrganizationID,
		OrganizationName: parent.OrganizationName,
		OrganizationType: parent.OrganizationType,
		ParentAdminID:    &parent.ID,
		MustChangePass:   true,
	}

	tx, err := s.adminRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to start invitation transaction")
	}
	defer tx.Rollback()

	if _, err := s.adminRepo.Create(ctx, tx, staff); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, utils.ErrEmailTaken
		}
		return nil, utils.WrapTransient(err, "Failed to create staff identity")
	}
	// Only the fact of the invite is logged, never the credential.
	if err := s.auditSvc.RecordTx(ctx, tx, callerID, models.ActionInviteStaff, &staff.ID, map[string]string{
		"email":        staff.Email,
		"organization": parent.OrganizationName,
	}); err != nil {
		return nil, utils.WrapTransient(err, "Failed to record invitation")
	}
	if err := tx.Commit(); err != nil {
		return nil, utils.WrapTransient(err, "Failed to commit invitation")
	}

	log.Info().
		Str("staff_id", staff.ID).
		Str("invited_by", callerID).
		Msg("Staff member invited")

	created, err := s.adminRepo.GetByID(ctx, staff.ID)
	if err != nil {
		// The row is committed; fall back to the local copy.
		created = staff
	}
	created.PasswordHash = ""

	return &InviteResult{Staff: created, TempPassword: tempPassword}, nil
}
