package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/tourindo/tourism_api/internal/cache"
	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/utils"
)

func TestMain(m *testing.M) {
	utils.InitJWT("test-secret", time.Hour)
	os.Exit(m.Run())
}

// newMockDB returns an sqlx handle backed by sqlmock, plus the
// repositories the services under test are built from.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *repository.AdminIdentityRepository, *AuditService) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	adminRepo := repository.NewAdminIdentityRepository(sqlxDB)
	auditSvc := NewAuditService(repository.NewActivityLogRepository(sqlxDB))
	return sqlxDB, mock, adminRepo, auditSvc
}

var adminTestColumns = []string{
	"id", "email", "password_hash", "full_name", "role", "is_approved",
	"organization_id", "organization_name", "organization_type", "parent_admin_id",
	"approved_by", "approved_at", "requested_at", "request_reason",
	"rejected", "rejected_reason", "must_change_password", "avatar_url",
	"last_login_at", "created_at", "updated_at",
}

func adminRows(admins ...*models.AdminIdentity) *sqlmock.Rows {
	rows := sqlmock.NewRows(adminTestColumns)
	for _, a := range admins {
		rows.AddRow(
			a.ID, a.Email, a.PasswordHash, a.FullName, string(a.Role), a.IsApproved,
			a.OrganizationID, a.OrganizationName, a.OrganizationType, a.ParentAdminID,
			a.ApprovedBy, a.ApprovedAt, a.RequestedAt, a.RequestReason,
			a.Rejected, a.RejectedReason, a.MustChangePass, a.AvatarURL,
			a.LastLoginAt, a.CreatedAt, a.UpdatedAt,
		)
	}
	return rows
}

func testAdmin(id string, role models.AdminRole) *models.AdminIdentity {
	now := time.Now()
	return &models.AdminIdentity{
		ID:         id,
		Email:      id + "@tourindo.id",
		FullName:   "Admin " + id,
		Role:       role,
		IsApproved: role != models.RolePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// fakeSessionStore is an in-memory stand-in for cache.SessionStore.
type fakeSessionStore struct {
	sessions   map[string]string
	snapshots  map[string]*models.AdminIdentity
	revoked    []string
	resolveErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions:  make(map[string]string),
		snapshots: make(map[string]*models.AdminIdentity),
	}
}

func (f *fakeSessionStore) Create(_ context.Context, sessionID, adminID string) error {
	f.sessions[sessionID] = adminID
	return nil
}

func (f *fakeSessionStore) Resolve(_ context.Context, sessionID string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	adminID, ok := f.sessions[sessionID]
	if !ok {
		return "", cache.ErrSessionNotFound
	}
	return adminID, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, sessionID, _ string) error {
	delete(f.sessions, sessionID)
	delete(f.snapshots, sessionID)
	return nil
}

func (f *fakeSessionStore) RevokeAll(_ context.Context, adminID string) error {
	f.revoked = append(f.revoked, adminID)
	for id, owner := range f.sessions {
		if owner == adminID {
			delete(f.sessions, id)
			delete(f.snapshots, id)
		}
	}
	return nil
}

func (f *fakeSessionStore) SaveSnapshot(_ context.Context, sessionID string, admin *models.AdminIdentity) error {
	copied := *admin
	f.snapshots[sessionID] = &copied
	return nil
}

func (f *fakeSessionStore) LoadSnapshot(_ context.Context, sessionID string) (*models.AdminIdentity, error) {
	snap, ok := f.snapshots[sessionID]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	return snap, nil
}

func expectGetByID(mock sqlmock.Sqlmock, admin *models.AdminIdentity) {
	mock.ExpectQuery(`SELECT (.+) FROM admin_identities WHERE id`).
		WithArgs(admin.ID).
		WillReturnRows(adminRows(admin))
}
