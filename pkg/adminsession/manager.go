// Package adminsession tracks the client-resident administrative
// session: an opaque token with a sliding eight-hour expiry, persisted
// across process restarts in durable client-side storage.
package adminsession

import (
	"context"
	"time"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

// SessionTTL is the lifetime granted on login and on each renewal.
const SessionTTL = 8 * time.Hour

// Session is the client-resident record of "this client currently acts
// as administrator X".
type Session struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CredentialVerifier is the slice of identity.Verifier the manager needs.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*admin.Identity, string, error)
}

// Manager owns the administrative session for one client process. All
// methods are for single-goroutine use (the UI thread); mutations are
// synchronous and non-reentrant, so no locking is needed.
type Manager struct {
	verifier CredentialVerifier
	storage  Storage
	now      func() time.Time
	logger   *observability.Logger

	session *Session
}

// NewManager constructs a manager and restores any persisted session.
// now may be nil, defaulting to time.Now; tests inject a fake clock.
func NewManager(verifier CredentialVerifier, storage Storage, now func() time.Time, logger *observability.Logger) *Manager {
	if now == nil {
		now = time.Now
	}
	m := &Manager{
		verifier: verifier,
		storage:  storage,
		now:      now,
		logger:   logger,
	}
	m.restore()
	return m
}

// restore loads a persisted session if it is still valid. An expired
// persisted session is cleared immediately without surfacing an error.
func (m *Manager) restore() {
	session, err := m.storage.Load()
	if err != nil {
		m.logger.WithError(err).Warn("failed to restore admin session")
		return
	}
	if session == nil {
		return
	}
	if !m.now().Before(session.ExpiresAt) {
		if err := m.storage.Clear(); err != nil {
			m.logger.WithError(err).Warn("failed to clear expired admin session")
		}
		return
	}
	m.session = session
}

// Login verifies credentials through the ephemeral verifier and, on
// success, starts a fresh session with an opaque token and an
// eight-hour expiry, persisted to durable storage.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	ident, _, err := m.verifier.Verify(ctx, email, password)
	if err != nil {
		return err
	}

	now := m.now()
	token, err := newSessionToken(now)
	if err != nil {
		return err
	}

	m.session = &Session{
		Email:     ident.Email,
		Token:     token,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := m.storage.Save(m.session); err != nil {
		m.logger.WithError(err).Warn("failed to persist admin session")
	}
	return nil
}

// IsAuthenticated reports whether an unexpired session exists. Expiry
// is enforced lazily here, and only here: reading an expired session
// revokes it (memory and storage) before returning false.
func (m *Manager) IsAuthenticated() bool {
	if m.session == nil {
		return false
	}
	if !m.now().Before(m.session.ExpiresAt) {
		m.revoke()
		return false
	}
	return true
}

// Renew extends the session by the full TTL from now and re-persists
// it. Calling Renew with no active session is a no-op. Intended to be
// called on meaningful user activity for sliding expiration.
func (m *Manager) Renew() {
	if !m.IsAuthenticated() {
		return
	}
	m.session.ExpiresAt = m.now().Add(SessionTTL)
	if err := m.storage.Save(m.session); err != nil {
		m.logger.WithError(err).Warn("failed to persist renewed admin session")
	}
}

// Logout clears the session from memory and durable storage
// unconditionally.
func (m *Manager) Logout() {
	m.revoke()
}

// Current returns the active session, or nil. Callers must treat the
// returned session as read-only.
func (m *Manager) Current() *Session {
	if !m.IsAuthenticated() {
		return nil
	}
	return m.session
}

func (m *Manager) revoke() {
	m.session = nil
	if err := m.storage.Clear(); err != nil {
		m.logger.WithError(err).Warn("failed to clear admin session storage")
	}
}
