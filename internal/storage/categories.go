package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"famtrack/internal/core"
)

// Category is a stored category row. A NULL owner marks a system
// category available to every user.
type Category struct {
	ID     string
	Name   core.Category
	UserID string // empty for system categories
}

func (c Category) IsSystem() bool {
	return c.UserID == ""
}

// EnsureSystemCategories seeds one system row per predefined category
// name. Safe to call on every startup.
func (r *Repository) EnsureSystemCategories(ctx context.Context) error {
	created := 0
	for _, name := range core.AllCategories() {
		var id string
		err := r.db.QueryRowContext(ctx,
			"SELECT id FROM categories WHERE name = ? AND user_id IS NULL", string(name)).Scan(&id)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check system category %s: %w", name, err)
		}
		_, err = r.db.ExecContext(ctx,
			"INSERT INTO categories (id, name, user_id) VALUES (?, ?, NULL)",
			uuid.New().String(), string(name))
		if err != nil {
			return fmt.Errorf("seed system category %s: %w", name, err)
		}
		created++
	}
	if created > 0 {
		slog.InfoContext(ctx, "Seeded system categories", "created", created)
	}
	return nil
}

// ListCategories returns system categories plus the user's own rows.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(user_id, '')
		FROM categories
		WHERE user_id IS NULL OR user_id = ?
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		var name string
		if err := rows.Scan(&c.ID, &name, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Name = core.Category(name)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetCategoryID resolves a category name to its system row id.
func (r *Repository) GetCategoryID(ctx context.Context, name core.Category) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM categories WHERE name = ? AND user_id IS NULL", string(name)).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("category %s not seeded", name)
	}
	if err != nil {
		return "", fmt.Errorf("get category id: %w", err)
	}
	return id, nil
}

// DeleteCategory removes a category row. Transactions and budgets that
// referenced it keep running with a NULL category (uncategorized).
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
