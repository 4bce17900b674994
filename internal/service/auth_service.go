package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tourindo/tourism_api/internal/cache"
	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/utils"
)

// AuthService resolves the caller's own identity: login, logout,
// registration, session verification and refresh. Workflow mutations on
// other identities live in the approval, hierarchy and invitation
// services.
type AuthService struct {
	adminRepo *repository.AdminIdentityRepository
	sessions  sessionStore
	auditSvc  *AuditService
}

// sessionStore is the slice of cache.SessionStore the auth service
// depends on.
type sessionStore interface {
	Create(ctx context.Context, sessionID, adminID string) error
	Resolve(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID, adminID string) error
	RevokeAll(ctx context.Context, adminID string) error
	SaveSnapshot(ctx context.Context, sessionID string, admin *models.AdminIdentity) error
	LoadSnapshot(ctx context.Context, sessionID string) (*models.AdminIdentity, error)
}

// NewAuthService constructs an AuthService.
func NewAuthService(adminRepo *repository.AdminIdentityRepository, sessions sessionStore, auditSvc *AuditService) *AuthService {
	return &AuthService{adminRepo: adminRepo, sessions: sessions, auditSvc: auditSvc}
}

// LoginResult carries the session token and resolved identity. For a
// pending or rejected account the token is still issued (the backend
// session is kept, the account is just not signed in from the
// dashboard's point of view) and Login returns the distinct error
// alongside the result.
type LoginResult struct {
	Token              string                `json:"token"`
	Admin              *models.AdminIdentity `json:"admin"`
	Capabilities       models.Capabilities   `json:"capabilities"`
	MustChangePassword bool                  `json:"mustChangePassword"`
}

// RegisterRequest carries a self-registration of an organization admin.
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"fullName"`
	OrganizationName string `json:"organizationName"`
	OrganizationType string `json:"organizationType"`
	RequestReason    string `json:"requestReason"`
}

// Login verifies credentials and opens a backend session. A pending or
// rejected identity keeps its session but fails with a distinct error so
// the dashboard can show the approval state instead of signing in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrInvalidCredentials
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to look up credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	if err := s.sessions.Create(ctx, sessionID, admin.ID); err != nil {
		return nil, utils.WrapTransient(err, "Failed to open session")
	}

	token, err := utils.GenerateJWT(admin.ID, admin.Email, string(admin.Role), sessionID)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to issue session token")
	}

	admin.PasswordHash = ""
	if err := s.sessions.SaveSnapshot(ctx, sessionID, admin); err != nil {
		log.Warn().Err(err).Str("admin_id", admin.ID).Msg("Failed to cache identity snapshot")
	}

	result := &LoginResult{
		Token:              token,
		Admin:              admin,
		Capabilities:       models.CapabilitiesFor(admin.Role),
		MustChangePassword: admin.MustChangePass,
	}

	if admin.Rejected {
		return result, utils.ErrAccountRejected
	}
	if !admin.Active() {
		return result, utils.ErrAwaitingApproval
	}

	now := time.Now()
	if err := s.adminRepo.TouchLastLogin(ctx, admin.ID, now); err != nil {
		log.Warn().Err(err).Str("admin_id", admin.ID).Msg("Failed to touch last_login_at")
	} else {
		admin.LastLoginAt = &now
	}
	s.auditSvc.Record(ctx, admin.ID, models.ActionLogin, nil, nil)

	return result, nil
}

// Logout invalidates the backend session and discards the snapshot. The
// caller ends up signed out no matter what; infrastructure failures are
// logged, not surfaced.
func (s *AuthService) Logout(ctx context.Context, sessionID, adminID string) {
	if err := s.sessions.Delete(ctx, sessionID, adminID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to delete session record")
	}
	if adminID != "" {
		s.auditSvc.Record(ctx, adminID, models.ActionLogout, nil, nil)
	}
}

// Register runs the two-step registration saga: a backend credential
// session first, then the pending identity keyed by the credential's
// stable id. The identity insert is idempotent on that id, and on a
// step-two failure the orphaned credential session is signed out so a
// retry is safe.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	if err := utils.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := utils.ValidateFullName(req.FullName); err != nil {
		return nil, err
	}
	if len(req.OrganizationName) == 0 {
		return nil, utils.NewError(utils.KindValidation, "ORG_NAME_REQUIRED", "Organization name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to hash password")
	}

	// Step 1: the credential and its session. credentialID is the stable
	// key the identity row reuses.
	credentialID := uuid.New().String()
	sessionID := uuid.New().String()
	if err := s.sessions.Create(ctx, sessionID, credentialID); err != nil {
		return nil, utils.WrapTransient(err, "Failed to create credential session")
	}

	now := time.Now()
	admin := &models.AdminIdentity{
		ID:               credentialID,
		Email:            utils.NormalizeEmail(req.Email),
		PasswordHash:     string(hash),
		FullName:         req.FullName,
		Role:             models.RolePending,
		IsApproved:       false,
		OrganizationID:   uuid.New().String(),
		OrganizationName: req.OrganizationName,
		OrganizationType: req.OrganizationType,
		RequestedAt:      &now,
		RequestReason:    req.RequestReason,
	}

	// Step 2: the identity record. On failure, compensate by signing the
	// orphaned credential out.
	if _, err := s.adminRepo.Create(ctx, s.adminRepo.DB(), admin); err != nil {
		if revokeErr := s.sessions.RevokeAll(ctx, credentialID); revokeErr != nil {
			log.Warn().Err(revokeErr).Str("credential_id", credentialID).Msg("Failed to revoke orphaned credential session")
		}
		if repository.IsUniqueViolation(err) {
			return nil, utils.ErrEmailTaken
		}
		return nil, utils.WrapTransient(err, "Failed to create registration request")
	}

	token, err := utils.GenerateJWT(admin.ID, admin.Email, string(admin.Role), sessionID)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to issue session token")
	}

	admin.PasswordHash = ""
	if err := s.sessions.SaveSnapshot(ctx, sessionID, admin); err != nil {
		log.Warn().Err(err).Str("admin_id", admin.ID).Msg("Failed to cache identity snapshot")
	}

	log.Info().Str("admin_id", admin.ID).Str("organization", admin.OrganizationName).Msg("Registration request created")

	return &LoginResult{
		Token:        token,
		Admin:        admin,
		Capabilities: models.CapabilitiesFor(admin.Role),
	}, nil
}

// Verify resolves a live session to its identity record. A session whose
// identity no longer exists is proactively invalidated: a session must
// never outlive its identity record.
func (s *AuthService) Verify(ctx context.Context, sessionID string) (*models.AdminIdentity, error) {
	adminID, err := s.sessions.Resolve(ctx, sessionID)
	if errors.Is(err, cache.ErrSessionNotFound) {
		return nil, utils.ErrSessionExpired
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to resolve session")
	}

	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		if delErr := s.sessions.Delete(ctx, sessionID, adminID); delErr != nil {
			log.Warn().Err(delErr).Str("session_id", sessionID).Msg("Failed to invalidate orphaned session")
		}
		return nil, utils.ErrIdentityMissing
	}
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to fetch identity for session")
	}

	admin.PasswordHash = ""
	return admin, nil
}

// Refresh re-fetches the caller's identity and overwrites the cached
// snapshot. Used after external profile mutations.
func (s *AuthService) Refresh(ctx context.Context, sessionID string) (*models.AdminIdentity, error) {
	admin, err := s.Verify(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveSnapshot(ctx, sessionID, admin); err != nil {
		log.Warn().Err(err).Str("admin_id", admin.ID).Msg("Failed to refresh identity snapshot")
	}
	return admin, nil
}

// Snapshot loads the cached identity snapshot for a session, if any.
func (s *AuthService) Snapshot(ctx context.Context, sessionID string) (*models.AdminIdentity, error) {
	return s.sessions.LoadSnapshot(ctx, sessionID)
}

// ChangePassword replaces the caller's credential after verifying the
// current one. Clears the first-login change flag.
func (s *AuthService) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error {
	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}

	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrAdminNotFound
	}
	if err != nil {
		return utils.WrapTransient(err, "Failed to fetch identity")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)); err != nil {
		return utils.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.WrapTransient(err, "Failed to hash password")
	}
	if err := s.adminRepo.UpdatePassword(ctx, adminID, string(hash)); err != nil {
		return utils.WrapTransient(err, "Failed to update password")
	}

	s.auditSvc.Record(ctx, adminID, models.ActionChangePassword, nil, nil)
	return nil
}
