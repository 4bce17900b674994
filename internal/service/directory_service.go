package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/utils"
)

// DirectoryService provides read/write access to admin identity records.
// It validates fields only; authorization and workflow rules live in the
// approval, hierarchy and invitation services.
type DirectoryService struct {
	adminRepo *repository.AdminIdentityRepository
	auditSvc  *AuditService
	avatarSvc *AvatarStorageService
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(adminRepo *repository.AdminIdentityRepository, auditSvc *AuditService, avatarSvc *AvatarStorageService) *DirectoryService {
	return &DirectoryService{adminRepo: adminRepo, auditSvc: auditSvc, avatarSvc: avatarSvc}
}

// UpdateProfileRequest carries self-editable profile fields. Empty fields
// are left unchanged.
type UpdateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ListPending returns registration requests awaiting review.
func (s *DirectoryService) ListPending(ctx context.Context) ([]models.AdminIdentity, error) {
	admins, err := s.adminRepo.ListPending(ctx)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to list pending registrations")
	}
	return admins, nil
}

// ListOrganizationAdmins returns all organization admins.
func (s *DirectoryService) ListOrganizationAdmins(ctx context.Context) ([]models.AdminIdentity, error) {
	admins, err := s.adminRepo.ListOrganizationAdmins(ctx)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to list organization admins")
	}
	return admins, nil
}

// ListStaff returns the staff under one organization admin.
func (s *DirectoryService) ListStaff(ctx context.Context, parentID string) ([]models.AdminIdentity, error) {
	admins, err := s.adminRepo.ListStaff(ctx, parentID)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to list staff")
	}
	return admins, nil
}

// CountStaff counts the staff under one organization admin.
func (s *DirectoryService) CountStaff(ctx context.Context, parentID string) (int, error) {
	count, err := s.adminRepo.CountStaff(ctx, parentID)
	if err != nil {
		return 0, utils.WrapTransient(err, "Failed to count staff")
	}
	return count, nil
}

// GetByID fetches one identity, returning an explicit not-found failure
// when the record is absent.
func (s *DirectoryService) GetByID(ctx context.Context, id string) (*models.AdminIdentity, error) {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrAdminNotFound
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to fetch admin identity")
	}
	return admin, nil
}

// UpdateProfile applies a self-edit after field validation. Logging is
// best effort.
func (s *DirectoryService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*models.AdminIdentity, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fullName := current.FullName
	if req.FullName != "" {
		if err := utils.ValidateFullName(req.FullName); err != nil {
			return nil, err
		}
		fullName = req.FullName
	}
	email := current.Email
	if req.Email != "" {
		if err := utils.ValidateEmail(req.Email); err != nil {
			return nil, err
		}
		email = utils.NormalizeEmail(req.Email)
	}

	if err := s.adminRepo.UpdateProfile(ctx, id, fullName, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrAdminNotFound
		}
		if repository.IsUniqueViolation(err) {
			return nil, utils.ErrEmailTaken
		}
		return nil, utils.WrapTransient(err, "Failed to update profile")
	}

	s.auditSvc.Record(ctx, id, models.ActionUpdateProfile, nil, map[string]string{
		"full_name": fullName,
		"email":     email,
	})

	return s.GetByID(ctx, id)
}

// UpdateAvatar stores a new avatar image and records its URL.
func (s *DirectoryService) UpdateAvatar(ctx context.Context, id string, image []byte, contentType string) (string, error) {
	if len(image) == 0 {
		return "", utils.NewError(utils.KindValidation, "AVATAR_REQUIRED", "Avatar image is required")
	}
	if s.avatarSvc == nil {
		return "", utils.NewError(utils.KindTransient, "AVATAR_STORAGE_UNAVAILABLE", "Avatar storage is not configured")
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return "", err
	}

	url, err := s.avatarSvc.UploadAvatar(ctx, id, image, contentType)
	if err != nil {
		return "", utils.WrapTransient(err, "Failed to store avatar image")
	}

	if err := s.adminRepo.UpdateAvatar(ctx, id, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", utils.ErrAdminNotFound
		}
		return "", utils.WrapTransient(err, "Failed to record avatar")
	}
	return url, nil
}
