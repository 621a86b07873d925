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

// MemberShareRow carries the raw figures needed to compute one member's
// share of a single expense. The arithmetic itself lives in core.
type MemberShareRow struct {
	AmountCents      int64
	UserParticipates bool
	MemberCount      int
}

// CategorySum is an expense total aggregated by category label.
type CategorySum struct {
	Category core.Category // empty for uncategorized
	Cents    int64
}

const txColumns = `
	t.id, t.user_id, COALESCE(c.name, ''), t.amount_cents, t.kind,
	t.occurred_at, t.created_at, t.user_participates
`

// CreateTransaction inserts the transaction and its member assignment
// links in one SQL transaction. MemberIDs in t.Members must already be
// validated against the owning user.
func (r *Repository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	categoryID, err := r.categoryIDForInsert(ctx, t.Category)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, category_id, amount_cents, kind, occurred_at, created_at, user_participates)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, categoryID, t.Amount.Cents, string(t.Kind),
		unix(t.OccurredAt), unix(t.CreatedAt), t.UserParticipates)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := insertMemberLinks(ctx, tx, t.ID, t.Members); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"members", len(t.Members))
	return nil
}

// UpdateTransaction replaces the scalar fields and the member set
// wholesale: existing links are cleared and re-added, there are no
// partial set edits.
func (r *Repository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	categoryID, err := r.categoryIDForInsert(ctx, t.Category)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, amount_cents = ?, kind = ?, occurred_at = ?, user_participates = ?
		WHERE id = ? AND user_id = ?
	`, categoryID, t.Amount.Cents, string(t.Kind), unix(t.OccurredAt),
		t.UserParticipates, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s not found", t.ID)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transaction_members WHERE transaction_id = ?", t.ID); err != nil {
		return fmt.Errorf("clear member assignments: %w", err)
	}
	if err := insertMemberLinks(ctx, tx, t.ID, t.Members); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteTransaction removes the transaction and its assignment links.
func (r *Repository) DeleteTransaction(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transaction_members WHERE transaction_id = ?", id); err != nil {
		return fmt.Errorf("delete member assignments: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.id = ?
	`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if err := r.attachMembers(ctx, []*core.Transaction{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions returns all of a user's transactions, newest first,
// with categories and assigned members resolved.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return r.listTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		ORDER BY t.occurred_at DESC
	`, userID)
}

// ListRecentTransactions returns the user's most recent transactions.
func (r *Repository) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return r.listTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		ORDER BY t.occurred_at DESC
		LIMIT `+fmt.Sprintf("%d", limit), userID)
}

// ListTransactionsBetween returns a user's transactions inside [from, to).
func (r *Repository) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	return r.listTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ? AND t.occurred_at >= ? AND t.occurred_at < ?
		ORDER BY t.occurred_at DESC
	`, userID, unix(from), unix(to))
}

func (r *Repository) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var (
		txs  []core.Transaction
		ptrs []*core.Transaction
	)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range txs {
		ptrs = append(ptrs, &txs[i])
	}
	if err := r.attachMembers(ctx, ptrs); err != nil {
		return nil, err
	}
	return txs, nil
}

// SumExpenses totals full expense amounts for a user inside [from, to),
// optionally restricted to one category. This feeds user-scoped budgets.
func (r *Repository) SumExpenses(ctx context.Context, userID string, category core.Category, from, to time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ? AND t.kind = 'expense' AND t.occurred_at >= ? AND t.occurred_at < ?
	`
	args := []any{userID, unix(from), unix(to)}
	if category != "" {
		query += " AND c.name = ?"
		args = append(args, string(category))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// ListMemberShareRows returns the figures needed to compute a member's
// per-head shares of the expenses it was assigned to inside [from, to).
func (r *Repository) ListMemberShareRows(ctx context.Context, memberID string, category core.Category, from, to time.Time) ([]MemberShareRow, error) {
	query := `
		SELECT t.amount_cents, t.user_participates,
		       (SELECT COUNT(*) FROM transaction_members tm2 WHERE tm2.transaction_id = t.id)
		FROM transactions t
		JOIN transaction_members tm ON tm.transaction_id = t.id
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE tm.member_id = ? AND t.kind = 'expense' AND t.occurred_at >= ? AND t.occurred_at < ?
	`
	args := []any{memberID, unix(from), unix(to)}
	if category != "" {
		query += " AND c.name = ?"
		args = append(args, string(category))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list member share rows: %w", err)
	}
	defer rows.Close()

	var shares []MemberShareRow
	for rows.Next() {
		var row MemberShareRow
		if err := rows.Scan(&row.AmountCents, &row.UserParticipates, &row.MemberCount); err != nil {
			return nil, fmt.Errorf("scan member share row: %w", err)
		}
		shares = append(shares, row)
	}
	return shares, rows.Err()
}

// TotalByKind sums a user's transactions of one kind across all time.
func (r *Repository) TotalByKind(ctx context.Context, userID string, kind core.Kind) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE user_id = ? AND kind = ?
	`, userID, string(kind)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total by kind: %w", err)
	}
	return total, nil
}

// CategorySums aggregates a user's expense totals per category across
// all time. Uncategorized expenses group under an empty category.
func (r *Repository) CategorySums(ctx context.Context, userID string) ([]CategorySum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, ''), SUM(t.amount_cents)
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ? AND t.kind = 'expense'
		GROUP BY COALESCE(c.name, '')
		ORDER BY SUM(t.amount_cents) DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var (
			s    CategorySum
			name string
		)
		if err := rows.Scan(&name, &s.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		s.Category = core.Category(name)
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

func (r *Repository) categoryIDForInsert(ctx context.Context, category core.Category) (any, error) {
	if category == "" {
		return nil, nil
	}
	id, err := r.GetCategoryID(ctx, category)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func insertMemberLinks(ctx context.Context, tx *sql.Tx, transactionID string, members []core.MemberRef) error {
	for _, m := range members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO transaction_members (transaction_id, member_id) VALUES (?, ?)",
			transactionID, m.ID); err != nil {
			return fmt.Errorf("insert member assignment: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t                     core.Transaction
		category              string
		kind                  string
		occurredAt, createdAt int64
	)
	err := row.Scan(&t.ID, &t.UserID, &category, &t.Amount.Cents, &kind,
		&occurredAt, &createdAt, &t.UserParticipates)
	if err != nil {
		return nil, err
	}
	t.Category = core.Category(category)
	t.Kind = core.Kind(kind)
	t.OccurredAt = fromUnix(occurredAt)
	t.CreatedAt = fromUnix(createdAt)
	return &t, nil
}

// attachMembers resolves assigned members for the given transactions.
func (r *Repository) attachMembers(ctx context.Context, txs []*core.Transaction) error {
	for _, t := range txs {
		rows, err := r.db.QueryContext(ctx, `
			SELECT m.id, m.name
			FROM transaction_members tm
			JOIN members m ON m.id = tm.member_id
			WHERE tm.transaction_id = ?
			ORDER BY m.joined_at
		`, t.ID)
		if err != nil {
			return fmt.Errorf("list assigned members: %w", err)
		}
		for rows.Next() {
			var ref core.MemberRef
			if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
				rows.Close()
				return fmt.Errorf("scan assigned member: %w", err)
			}
			t.Members = append(t.Members, ref)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}
