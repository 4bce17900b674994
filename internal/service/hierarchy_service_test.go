package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/utils"
)

func TestDeleteOrganizationAdminCascades(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	orgAdmin := testAdmin("org-1", models.RoleOrgAdmin)
	orgAdmin.OrganizationName = "Raja Ampat Diving"

	expectGetByID(mock, super)
	expectGetByID(mock, orgAdmin)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM admin_identities`).
		WithArgs(orgAdmin.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow("staff-1").
			AddRow("staff-2"))
	mock.ExpectExec(`DELETE FROM admin_identities WHERE id`).
		WithArgs(orgAdmin.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WithArgs(super.ID, string(models.ActionDeleteOrgAdmin), orgAdmin.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := svc.DeleteOrganizationAdmin(context.Background(), orgAdmin.ID, super.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedStaffCount)
	assert.Equal(t, []string{"staff-1", "staff-2"}, result.RemovedStaffIDs)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganizationAdminWithoutStaff(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	orgAdmin := testAdmin("org-1", models.RoleOrgAdmin)

	expectGetByID(mock, super)
	expectGetByID(mock, orgAdmin)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM admin_identities`).
		WithArgs(orgAdmin.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`DELETE FROM admin_identities WHERE id`).
		WithArgs(orgAdmin.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := svc.DeleteOrganizationAdmin(context.Background(), orgAdmin.ID, super.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.DeletedStaffCount)
	assert.Empty(t, result.RemovedStaffIDs)
}

func TestDeleteOrganizationAdminAuditFailureRollsBack(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	orgAdmin := testAdmin("org-1", models.RoleOrgAdmin)

	expectGetByID(mock, super)
	expectGetByID(mock, orgAdmin)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM admin_identities`).
		WithArgs(orgAdmin.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("staff-1"))
	mock.ExpectExec(`DELETE FROM admin_identities WHERE id`).
		WithArgs(orgAdmin.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.DeleteOrganizationAdmin(context.Background(), orgAdmin.ID, super.ID)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindTransient))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganizationAdminRequiresSuperAdmin(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	orgAdmin := testAdmin("org-1", models.RoleOrgAdmin)
	expectGetByID(mock, orgAdmin)

	_, err := svc.DeleteOrganizationAdmin(context.Background(), "org-2", orgAdmin.ID)
	assert.ErrorIs(t, err, utils.ErrNotAuthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganizationAdminWrongTargetRole(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	staff := testAdmin("staff-1", models.RoleOrgStaff)

	expectGetByID(mock, super)
	expectGetByID(mock, staff)

	_, err := svc.DeleteOrganizationAdmin(context.Background(), staff.ID, super.ID)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestDeleteStaffMemberByOwnAdmin(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	orgAdmin := testAdmin("org-1", models.RoleOrgAdmin)
	staff := testAdmin("staff-1", models.RoleOrgStaff)
	staff.ParentAdminID = &orgAdmin.ID

	expectGetByID(mock, orgAdmin)
	expectGetByID(mock, staff)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM admin_identities WHERE id`).
		WithArgs(staff.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WithArgs(orgAdmin.ID, string(models.ActionDeleteStaff), staff.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := svc.DeleteStaffMember(context.Background(), staff.ID, orgAdmin.ID)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// An organization admin cannot reach into another organization's staff.
func TestDeleteStaffMemberForeignAdmin(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	otherAdmin := testAdmin("org-2", models.RoleOrgAdmin)
	parentID := "org-1"
	staff := testAdmin("staff-1", models.RoleOrgStaff)
	staff.ParentAdminID = &parentID

	expectGetByID(mock, otherAdmin)
	expectGetByID(mock, staff)

	err := svc.DeleteStaffMember(context.Background(), staff.ID, otherAdmin.ID)
	assert.ErrorIs(t, err, utils.ErrNotAuthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStaffMemberBySuperAdmin(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	parentID := "org-1"
	staff := testAdmin("staff-1", models.RoleOrgStaff)
	staff.ParentAdminID = &parentID

	expectGetByID(mock, super)
	expectGetByID(mock, staff)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM admin_identities WHERE id`).
		WithArgs(staff.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := svc.DeleteStaffMember(context.Background(), staff.ID, super.ID)
	require.NoError(t, err)
}

func TestDeleteStaffMemberWrongTargetRole(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewHierarchyService(adminRepo, auditSvc, nil)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	orgAdmin := testAdmin("org-1", models.RoleOrgAdmin)

	expectGetByID(mock, super)
	expectGetByID(mock, orgAdmin)

	err := svc.DeleteStaffMember(context.Background(), orgAdmin.ID, super.ID)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}
