package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Session is a server-side login session referenced by a cookie token.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		s.Token, s.UserID, unix(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, token string) (*Session, error) {
	var (
		s       Session
		expires int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at FROM sessions WHERE token = ?", token).
		Scan(&s.Token, &s.UserID, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.ExpiresAt = fromUnix(expires)
	return &s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions clears sessions past their expiry, returning the
// number removed.
func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", unix(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
