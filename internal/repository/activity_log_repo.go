package repository

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/tourindo/tourism_api/internal/models"
)

// ActivityLogRepository provides append and query access to the
// append-only activity_logs table. Entries are never updated or
// individually deleted.
type ActivityLogRepository struct {
	db *sqlx.DB
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(db *sqlx.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// DB exposes the underlying handle for best-effort appends outside a
// transaction.
func (r *ActivityLogRepository) DB() *sqlx.DB { return r.db }

// Append writes one audit entry on the given executor. Pass a transaction
// to make the entry atomic with an identity mutation, or the plain DB
// handle for best-effort informational logging.
func (r *ActivityLogRepository) Append(ctx context.Context, q sqlx.ExtContext, adminID string, action models.ActivityAction, targetUserID *string, details json.RawMessage) error {
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO activity_logs (admin_id, action, target_user_id, details)
		VALUES ($1, $2, $3, $4)`,
		adminID, action, targetUserID, details)
	return err
}

// Query returns recent entries, most recent first. When adminID is
// non-nil, only that actor's entries are returned.
func (r *ActivityLogRepository) Query(ctx context.Context, adminID *string, limit int) ([]models.ActivityLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.ActivityLogEntry
	if adminID != nil {
		err := r.db.SelectContext(ctx, &entries, `
			SELECT id, admin_id, action, target_user_id, details, created_at
			FROM activity_logs
			WHERE admin_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, *adminID, limit)
		return entries, err
	}

	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, admin_id, action, target_user_id, details, created_at
		FROM activity_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	return entries, err
}
