package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"famtrack/internal/core"
)

const budgetColumns = `
	b.id, b.ceiling_cents, b.period, b.is_active, b.alert_threshold,
	b.notifications_enabled, COALESCE(b.user_id, ''), COALESCE(b.member_id, ''),
	COALESCE(c.name, ''), b.created_at, b.updated_at
`

func (r *Repository) CreateBudget(ctx context.Context, b *core.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}

	categoryID, err := r.categoryIDForInsert(ctx, b.Category)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, ceiling_cents, period, is_active, alert_threshold,
			notifications_enabled, user_id, member_id, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Ceiling.Cents, string(b.Period), b.IsActive, b.AlertThreshold,
		b.NotificationsEnabled, nullable(b.UserID), nullable(b.MemberID), categoryID,
		unix(b.CreatedAt), unix(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *Repository) GetBudget(ctx context.Context, id string) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets b
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE b.id = ?
	`, id)

	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns every budget a user manages: their own plus those
// scoped to their members.
func (r *Repository) ListBudgets(ctx context.Context, userID string, activeOnly bool) ([]core.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets b
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE (b.user_id = ? OR b.member_id IN (SELECT id FROM members WHERE user_id = ?))
	`
	if activeOnly {
		query += " AND b.is_active = 1"
	}
	query += " ORDER BY b.created_at"

	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (r *Repository) UpdateBudget(ctx context.Context, b *core.Budget) error {
	categoryID, err := r.categoryIDForInsert(ctx, b.Category)
	if err != nil {
		return err
	}

	b.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET ceiling_cents = ?, period = ?, is_active = ?, alert_threshold = ?,
			notifications_enabled = ?, category_id = ?, updated_at = ?
		WHERE id = ?
	`, b.Ceiling.Cents, string(b.Period), b.IsActive, b.AlertThreshold,
		b.NotificationsEnabled, categoryID, unix(b.UpdatedAt), b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s not found", b.ID)
	}
	return nil
}

// SetBudgetActive persists a pause/unpause toggle.
func (r *Repository) SetBudgetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE budgets SET is_active = ?, updated_at = ? WHERE id = ?",
		active, unix(updatedAt), id)
	if err != nil {
		return fmt.Errorf("set budget active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s not found", id)
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s not found", id)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanBudget(row rowScanner) (*core.Budget, error) {
	var (
		b                    core.Budget
		period, category     string
		createdAt, updatedAt int64
	)
	err := row.Scan(&b.ID, &b.Ceiling.Cents, &period, &b.IsActive, &b.AlertThreshold,
		&b.NotificationsEnabled, &b.UserID, &b.MemberID, &category, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.Period = core.Period(period)
	b.Category = core.Category(category)
	b.CreatedAt = fromUnix(createdAt)
	b.UpdatedAt = fromUnix(updatedAt)
	return &b, nil
}
