package service

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/utils"
)

// AuditService is the append-only log of privileged actions. Identity
// mutations append inside the mutation's transaction (no mutation without
// a trail); informational actions append best-effort and never block the
// primary action.
type AuditService struct {
	logRepo *repository.ActivityLogRepository
}

// NewAuditService constructs an AuditService.
func NewAuditService(logRepo *repository.ActivityLogRepository) *AuditService {
	return &AuditService{logRepo: logRepo}
}

// RecordTx appends an entry on the caller's transaction. If the caller's
// mutation rolls back, the entry rolls back with it.
func (s *AuditService) RecordTx(ctx context.Context, tx sqlx.ExtContext, adminID string, action models.ActivityAction, targetUserID *string, details any) error {
	payload, err := marshalDetails(details)
	if err != nil {
		return err
	}
	return s.logRepo.Append(ctx, tx, adminID, action, targetUserID, payload)
}

// Record appends an informational entry best-effort. Failures are logged
// and swallowed; they are never surfaced to the end user.
func (s *AuditService) Record(ctx context.Context, adminID string, action models.ActivityAction, targetUserID *string, details any) {
	payload, err := marshalDetails(details)
	if err == nil {
		err = s.logRepo.Append(ctx, s.logRepo.DB(), adminID, action, targetUserID, payload)
	}
	if err != nil {
		log.Warn().Err(err).
			Str("admin_id", adminID).
			Str("action", string(action)).
			Msg("Best-effort audit append failed")
	}
}

// Recent returns audit entries most recent first.
func (s *AuditService) Recent(ctx context.Context, adminID *string, limit int) ([]models.ActivityLogEntry, error) {
	entries, err := s.logRepo.Query(ctx, adminID, limit)
	if err != nil {
		return nil, utils.WrapTransient(err, "Failed to query activity log")
	}
	return entries, nil
}

func marshalDetails(details any) (json.RawMessage, error) {
	if details == nil {
		return nil, nil
	}
	if raw, ok := details.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(details)
}
