package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tourindo/tourism_api/internal/cache"
	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/utils"
)

// SessionPhase is the visible state of one client session context.
type SessionPhase string

const (
	PhaseUninitialized   SessionPhase = "uninitialized"
	PhaseHydrating       SessionPhase = "hydrating"
	PhaseAuthenticated   SessionPhase = "authenticated"
	PhasePendingApproval SessionPhase = "pending_approval"
	PhaseUnauthenticated SessionPhase = "unauthenticated"
	PhaseConnectionError SessionPhase = "connection_error"
)

// SessionState is the point-in-time view of a session context.
// IsAuthenticated is derived from the phase, never stored.
type SessionState struct {
	Admin           *models.AdminIdentity `json:"admin,omitempty"`
	Phase           SessionPhase          `json:"phase"`
	IsAuthenticated bool                  `json:"isAuthenticated"`
	IsHydrated      bool                  `json:"isHydrated"`
	IsLoading       bool                  `json:"isLoading"`
	Capabilities    models.Capabilities   `json:"capabilities"`
}

// sessionVerifier is the slice of AuthService the manager depends on.
// Narrowed for testability.
type sessionVerifier interface {
	Verify(ctx context.Context, sessionID string) (*models.AdminIdentity, error)
	Snapshot(ctx context.Context, sessionID string) (*models.AdminIdentity, error)
	Logout(ctx context.Context, sessionID, adminID string)
}

// SessionManager owns the hydration lifecycle of one client session
// context. It starts UNINITIALIZED, hydrates at most once, and settles in
// AUTHENTICATED, PENDING_APPROVAL or UNAUTHENTICATED. A bounded wait
// surfaces a connectivity error if verification has not completed in
// time; the verification itself is never cancelled, and a late success
// still updates the state.
type SessionManager struct {
	auth      sessionVerifier
	sessionID string
	timeout   time.Duration

	mu         sync.Mutex
	phase      SessionPhase
	admin      *models.AdminIdentity
	isHydrated bool
	isLoading  bool

	hydrateOnce sync.Once
}

// NewSessionManager creates a manager for one session context. sessionID
// may be empty when the client holds no token; hydration then resolves
// straight to UNAUTHENTICATED.
func NewSessionManager(auth sessionVerifier, sessionID string, timeout time.Duration) *SessionManager {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &SessionManager{
		auth:      auth,
		sessionID: sessionID,
		timeout:   timeout,
		phase:     PhaseUninitialized,
	}
}

// Hydrate resolves the session against the backend. Guarded so concurrent
// callers at startup trigger exactly one verification. Returns the state
// visible when either verification or the bounded wait finishes first.
func (m *SessionManager) Hydrate(ctx context.Context) SessionState {
	m.hydrateOnce.Do(func() { m.hydrate(ctx) })
	return m.State()
}

func (m *SessionManager) hydrate(ctx context.Context) {
	m.mu.Lock()
	m.phase = PhaseHydrating
	m.isLoading = true
	m.mu.Unlock()

	if m.sessionID == "" {
		m.settle(nil, utils.ErrSessionExpired)
		return
	}

	// Show the cached snapshot while verification is in flight.
	if snap, err := m.auth.Snapshot(ctx, m.sessionID); err == nil {
		m.mu.Lock()
		if !m.isHydrated {
			m.admin = snap
		}
		m.mu.Unlock()
	}

	done := make(chan struct{})
	var (
		admin     *models.AdminIdentity
		verifyErr error
	)
	go func() {
		// Verification keeps its own deadline so it can finish after the
		// bounded wait below has already given up.
		vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*m.timeout)
		defer cancel()
		admin, verifyErr = m.auth.Verify(vctx, m.sessionID)
		m.settle(admin, verifyErr)
		close(done)
	}()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		// The wait lapsed but verification continues; a late result still
		// settles the state, so there is no permanent lockout.
		m.mu.Lock()
		if !m.isHydrated {
			m.phase = PhaseConnectionError
			m.isLoading = false
		}
		m.mu.Unlock()
	}
}

// settle applies a verification outcome to the state machine.
func (m *SessionManager) settle(admin *models.AdminIdentity, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.isHydrated = true
	m.isLoading = false

	switch {
	case err == nil && admin != nil && admin.Active():
		m.phase = PhaseAuthenticated
		m.admin = admin
	case err == nil && admin != nil:
		m.phase = PhasePendingApproval
		m.admin = admin
	case errors.Is(err, cache.ErrSessionNotFound),
		utils.IsKind(err, utils.KindAuthentication):
		m.phase = PhaseUnauthenticated
		m.admin = nil
	default:
		m.phase = PhaseConnectionError
	}
}

// Logout signs the session out. The visible state becomes
// UNAUTHENTICATED unconditionally, whatever the backend said.
func (m *SessionManager) Logout(ctx context.Context) {
	adminID := ""
	m.mu.Lock()
	if m.admin != nil {
		adminID = m.admin.ID
	}
	m.mu.Unlock()

	m.auth.Logout(ctx, m.sessionID, adminID)

	m.mu.Lock()
	m.phase = PhaseUnauthenticated
	m.admin = nil
	m.isHydrated = true
	m.isLoading = false
	m.mu.Unlock()
}

// State returns a copy of the current session state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := SessionState{
		Admin:           m.admin,
		Phase:           m.phase,
		IsAuthenticated: m.phase == PhaseAuthenticated,
		IsHydrated:      m.isHydrated,
		IsLoading:       m.isLoading,
	}
	if m.admin != nil {
		state.Capabilities = models.CapabilitiesFor(m.admin.Role)
	}
	return state
}
