package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tourindo/tourism_api/internal/models"
)

// SessionStore keeps backend session records and cached identity snapshots
// in Redis. A session token whose record is gone is dead regardless of its
// JWT expiry, which is what lets deletions revoke access immediately.
//
// Keys:
//
//	session:token:{sessionId}    -> adminId
//	session:admin:{adminId}      -> set of sessionIds
//	session:snapshot:{sessionId} -> AdminIdentity JSON (never credentials)
type SessionStore struct {
	redis       *RedisClient
	ttl         time.Duration
	snapshotTTL time.Duration
}

// ErrSessionNotFound is returned when no live record exists for a session.
var ErrSessionNotFound = errors.New("session not found")

// NewSessionStore creates a SessionStore. Session records live for ttl;
// cached identity snapshots live for snapshotTTL (ttl when zero), which
// lets snapshots be kept shorter than the sessions they mirror.
func NewSessionStore(redis *RedisClient, ttl, snapshotTTL time.Duration) *SessionStore {
	if snapshotTTL <= 0 {
		snapshotTTL = ttl
	}
	return &SessionStore{redis: redis, ttl: ttl, snapshotTTL: snapshotTTL}
}

func keyToken(sessionID string) string    { return "session:token:" + sessionID }
func keyAdmin(adminID string) string      { return "session:admin:" + adminID }
func keySnapshot(sessionID string) string { return "session:snapshot:" + sessionID }

// Create registers a live session for an admin.
func (s *SessionStore) Create(ctx context.Context, sessionID, adminID string) error {
	if err := s.redis.Set(ctx, keyToken(sessionID), adminID, s.ttl); err != nil {
		return fmt.Errorf("failed to store session record: %w", err)
	}
	if err := s.redis.SAdd(ctx, keyAdmin(adminID), sessionID); err != nil {
		return fmt.Errorf("failed to index session by admin: %w", err)
	}
	return nil
}

// Resolve returns the admin id bound to a live session.
func (s *SessionStore) Resolve(ctx context.Context, sessionID string) (string, error) {
	adminID, err := s.redis.Get(ctx, keyToken(sessionID))
	if errors.Is(err, ErrCacheMiss) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return adminID, nil
}

// Delete invalidates one session and its snapshot.
func (s *SessionStore) Delete(ctx context.Context, sessionID, adminID string) error {
	if err := s.redis.Delete(ctx, keyToken(sessionID), keySnapshot(sessionID)); err != nil {
		return err
	}
	if adminID != "" {
		return s.redis.SRem(ctx, keyAdmin(adminID), sessionID)
	}
	return nil
}

// RevokeAll invalidates every live session of an admin. Used when the
// identity record is deleted so no session outlives it.
func (s *SessionStore) RevokeAll(ctx context.Context, adminID string) error {
	sessions, err := s.redis.SMembers(ctx, keyAdmin(adminID))
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(sessions)*2+1)
	for _, id := range sessions {
		keys = append(keys, keyToken(id), keySnapshot(id))
	}
	keys = append(keys, keyAdmin(adminID))
	return s.redis.Delete(ctx, keys...)
}

// SaveSnapshot caches the identity for fast hydration. Only the identity
// record is stored, never credentials.
func (s *SessionStore) SaveSnapshot(ctx context.Context, sessionID string, admin *models.AdminIdentity) error {
	data, err := json.Marshal(admin)
	if err != nil {
		return fmt.Errorf("failed to marshal identity snapshot: %w", err)
	}
	return s.redis.Set(ctx, keySnapshot(sessionID), string(data), s.snapshotTTL)
}

// LoadSnapshot returns the cached identity snapshot if present.
func (s *SessionStore) LoadSnapshot(ctx context.Context, sessionID string) (*models.AdminIdentity, error) {
	data, err := s.redis.Get(ctx, keySnapshot(sessionID))
	if errors.Is(err, ErrCacheMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var admin models.AdminIdentity
	if err := json.Unmarshal([]byte(data), &admin); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity snapshot: %w", err)
	}
	return &admin, nil
}

// ActiveAdminIDs lists admins that currently hold at least one session
// record. Consumed by the session reaper.
func (s *SessionStore) ActiveAdminIDs(ctx context.Context) ([]string, error) {
	keys, err := s.redis.ScanKeys(ctx, "session:admin:*")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, "session:admin:"))
	}
	return ids, nil
}
