package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/utils"
)

func TestListPendingOrdersByArrival(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewDirectoryService(adminRepo, auditSvc, nil)

	first := testAdmin("pending-1", models.RolePending)
	second := testAdmin("pending-2", models.RolePending)
	mock.ExpectQuery(`SELECT (.+) FROM admin_identities`).
		WillReturnRows(adminRows(first, second))

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "pending-1", pending[0].ID)
}

func TestGetByIDNotFound(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewDirectoryService(adminRepo, auditSvc, nil)

	mock.ExpectQuery(`SELECT (.+) FROM admin_identities WHERE id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, utils.ErrAdminNotFound)
}

func TestUpdateProfileSuccess(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewDirectoryService(adminRepo, auditSvc, nil)

	admin := testAdmin("org-1", models.RoleOrgAdmin)
	expectGetByID(mock, admin)

	mock.ExpectExec(`UPDATE admin_identities`).
		WithArgs(admin.ID, "Putri Ayu", "putri@tourindo.id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	updated := testAdmin("org-1", models.RoleOrgAdmin)
	updated.FullName = "Putri Ayu"
	updated.Email = "putri@tourindo.id"
	expectGetByID(mock, updated)

	got, err := svc.UpdateProfile(context.Background(), admin.ID, UpdateProfileRequest{
		FullName: "Putri Ayu",
		Email:    "Putri@Tourindo.id",
	})
	require.NoError(t, err)
	assert.Equal(t, "Putri Ayu", got.FullName)
	assert.Equal(t, "putri@tourindo.id", got.Email)
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewDirectoryService(adminRepo, auditSvc, nil)

	admin := testAdmin("org-1", models.RoleOrgAdmin)
	expectGetByID(mock, admin)

	mock.ExpectExec(`UPDATE admin_identities`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := svc.UpdateProfile(context.Background(), admin.ID, UpdateProfileRequest{
		Email: "taken@tourindo.id",
	})
	assert.ErrorIs(t, err, utils.ErrEmailTaken)
}

func TestUpdateProfileRejectsBadEmail(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewDirectoryService(adminRepo, auditSvc, nil)

	admin := testAdmin("org-1", models.RoleOrgAdmin)
	expectGetByID(mock, admin)

	_, err := svc.UpdateProfile(context.Background(), admin.ID, UpdateProfileRequest{Email: "nope"})
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestUpdateAvatarRequiresImage(t *testing.T) {
	_, _, adminRepo, auditSvc := newMockDB(t)
	svc := NewDirectoryService(adminRepo, auditSvc, nil)

	_, err := svc.UpdateAvatar(context.Background(), "org-1", nil, "image/png")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestUpdateAvatarWithoutStorage(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewDirectoryService(adminRepo, auditSvc, nil)

	_, err := svc.UpdateAvatar(context.Background(), "org-1", []byte("png-bytes"), "image/png")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindTransient))
	assert.Equal(t, "AVATAR_STORAGE_UNAVAILABLE", utils.AsAppError(err).Code)

	// No identity lookup and no avatar write when storage is absent.
	require.NoError(t, mock.ExpectationsWereMet())
}
