package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"famtrack/internal/storage"
)

// DefaultSessionTTL is how long a login cookie stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

var ErrSessionNotFound = errors.New("session not found or expired")

// SessionStore is the persistence surface for server-side sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *storage.Session) error
	GetSession(ctx context.Context, token string) (*storage.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionManager issues and resolves opaque session tokens.
type SessionManager struct {
	store SessionStore
	ttl   time.Duration
}

func NewSessionManager(store SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{store: store, ttl: ttl}
}

// TTL is the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create opens a session for the user and returns the cookie token.
func (m *SessionManager) Create(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	s := &storage.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return token, nil
}

// Resolve maps a cookie token back to a user id. Expired sessions are
// removed on sight.
func (m *SessionManager) Resolve(ctx context.Context, token string) (string, error) {
	s, err := m.store.GetSession(ctx, token)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return "", ErrSessionNotFound
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		_ = m.store.DeleteSession(ctx, token)
		return "", ErrSessionNotFound
	}
	return s.UserID, nil
}

// Destroy ends a session (logout).
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	return m.store.DeleteSession(ctx, token)
}

// CleanupExpired drops sessions past their expiry.
func (m *SessionManager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
