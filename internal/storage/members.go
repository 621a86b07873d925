package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"famtrack/internal/core"
)

func (r *Repository) CreateMember(ctx context.Context, m *core.Member) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, user_id, name, relationship, joined_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.Name, m.Relationship, unix(m.JoinedAt))
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (r *Repository) GetMember(ctx context.Context, id string) (*core.Member, error) {
	var (
		m      core.Member
		joined int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, relationship, joined_at FROM members WHERE id = ?
	`, id).Scan(&m.ID, &m.UserID, &m.Name, &m.Relationship, &joined)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	m.JoinedAt = fromUnix(joined)
	return &m, nil
}

func (r *Repository) ListMembers(ctx context.Context, userID string) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, relationship, joined_at
		FROM members WHERE user_id = ? ORDER BY joined_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var (
			m      core.Member
			joined int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Relationship, &joined); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.JoinedAt = fromUnix(joined)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) UpdateMember(ctx context.Context, m *core.Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members SET name = ?, relationship = ? WHERE id = ? AND user_id = ?
	`, m.Name, m.Relationship, m.ID, m.UserID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s not found", m.ID)
	}
	return nil
}

// DeleteMember removes the member and its transaction assignment links.
// The transactions themselves are never deleted: removing a member must
// not lose the expense history it was tagged on.
func (r *Repository) DeleteMember(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transaction_members WHERE member_id = ?", id); err != nil {
		return fmt.Errorf("delete member assignments: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM members WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Member deleted", "member_id", id, "user_id", userID)
	return nil
}
