package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tourindo/tourism_api/internal/cache"
	"github.com/tourindo/tourism_api/internal/repository"
)

// SessionReaperWorker revokes sessions whose identity record no longer
// exists. Deletions already revoke inline; this loop is the backstop for
// sessions orphaned by a crash between the database commit and the
// revocation.
type SessionReaperWorker struct {
	adminRepo *repository.AdminIdentityRepository
	sessions  *cache.SessionStore
	interval  time.Duration
}

// NewSessionReaperWorker constructs a SessionReaperWorker.
func NewSessionReaperWorker(
	adminRepo *repository.AdminIdentityRepository,
	sessions *cache.SessionStore,
	interval time.Duration,
) *SessionReaperWorker {
	return &SessionReaperWorker{
		adminRepo: adminRepo,
		sessions:  sessions,
		interval:  interval,
	}
}

// Start begins the periodic reap loop until context is canceled.
func (w *SessionReaperWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.interval).
		Msg("Starting session reaper worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Session reaper worker stopped")
			return
		}
	}
}

func (w *SessionReaperWorker) run(ctx context.Context) {
	adminIDs, err := w.sessions.ActiveAdminIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Session reaper: failed to list active sessions")
		return
	}

	reaped := 0
	for _, adminID := range adminIDs {
		exists, err := w.adminRepo.Exists(ctx, adminID)
		if err != nil {
			log.Error().Err(err).
				Str("admin_id", adminID).
				Msg("Session reaper: identity lookup failed")
			continue
		}
		if exists {
			continue
		}

		if err := w.sessions.RevokeAll(ctx, adminID); err != nil {
			log.Error().Err(err).
				Str("admin_id", adminID).
				Msg("Session reaper: revoke failed")
			continue
		}
		reaped++
		log.Info().
			Str("admin_id", adminID).
			Msg("Session reaper: revoked sessions for deleted identity")
	}

	if reaped > 0 {
		log.Info().Int("reaped", reaped).Msg("Session reaper pass complete")
	}
}
