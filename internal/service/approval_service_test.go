package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/utils"
)

func TestApproveSuccess(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	pending := testAdmin("pending-1", models.RolePending)
	pending.OrganizationName = "Borobudur Tours"

	expectGetByID(mock, super)
	expectGetByID(mock, pending)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE admin_identities`).
		WithArgs(pending.ID, super.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WithArgs(super.ID, string(models.ActionApproveAdmin), pending.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	approved := testAdmin("pending-1", models.RoleOrgAdmin)
	approved.ApprovedBy = &super.ID
	now := time.Now()
	approved.ApprovedAt = &now
	expectGetByID(mock, approved)

	got, err := svc.Approve(context.Background(), pending.ID, super.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrgAdmin, got.Role)
	assert.True(t, got.IsApproved)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, super.ID, *got.ApprovedBy)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveRequiresSuperAdmin(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	orgAdmin := testAdmin("org-1", models.RoleOrgAdmin)
	expectGetByID(mock, orgAdmin)

	_, err := svc.Approve(context.Background(), "pending-1", orgAdmin.ID)
	assert.ErrorIs(t, err, utils.ErrNotAuthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveUnknownApprover(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	mock.ExpectQuery(`SELECT (.+) FROM admin_identities WHERE id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Approve(context.Background(), "pending-1", "ghost")
	assert.ErrorIs(t, err, utils.ErrNotAuthorized)
}

func TestApproveTargetNotPending(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	alreadyActive := testAdmin("org-1", models.RoleOrgAdmin)

	expectGetByID(mock, super)
	expectGetByID(mock, alreadyActive)

	_, err := svc.Approve(context.Background(), alreadyActive.ID, super.ID)
	assert.ErrorIs(t, err, utils.ErrNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveTargetRejected(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	rejected := testAdmin("pending-1", models.RolePending)
	rejected.Rejected = true
	rejected.RejectedReason = "incomplete documents"

	expectGetByID(mock, super)
	expectGetByID(mock, rejected)

	_, err := svc.Approve(context.Background(), rejected.ID, super.ID)
	assert.ErrorIs(t, err, utils.ErrNotPending)
}

// A concurrent terminal transition between the precondition read and the
// update shows up as a zero-row update and must surface as NOT_PENDING,
// with nothing committed.
func TestApproveLosesRace(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	pending := testAdmin("pending-1", models.RolePending)

	expectGetByID(mock, super)
	expectGetByID(mock, pending)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE admin_identities`).
		WithArgs(pending.ID, super.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), pending.ID, super.ID)
	assert.ErrorIs(t, err, utils.ErrNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAuditFailureRollsBack(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	pending := testAdmin("pending-1", models.RolePending)

	expectGetByID(mock, super)
	expectGetByID(mock, pending)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE admin_identities`).
		WithArgs(pending.ID, super.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), pending.ID, super.ID)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindTransient))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectRequiresReason(t *testing.T) {
	_, _, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	err := svc.Reject(context.Background(), "pending-1", "super-1", "")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestRejectSuccess(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	pending := testAdmin("pending-1", models.RolePending)

	expectGetByID(mock, super)
	expectGetByID(mock, pending)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE admin_identities`).
		WithArgs(pending.ID, "incomplete documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).
		WithArgs(super.ID, string(models.ActionRejectAdmin), pending.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := svc.Reject(context.Background(), pending.ID, super.ID, "incomplete documents")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectAlreadyRejected(t *testing.T) {
	_, mock, adminRepo, auditSvc := newMockDB(t)
	svc := NewApprovalService(adminRepo, auditSvc)

	super := testAdmin("super-1", models.RoleSuperAdmin)
	rejected := testAdmin("pending-1", models.RolePending)
	rejected.Rejected = true

	expectGetByID(mock, super)
	expectGetByID(mock, rejected)

	err := svc.Reject(context.Background(), rejected.ID, super.ID, "again")
	assert.ErrorIs(t, err, utils.ErrNotPending)
}
