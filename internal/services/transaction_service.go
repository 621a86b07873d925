package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"famtrack/internal/amqp"
	"famtrack/internal/core"
	"famtrack/internal/storage"
)

// AlertPublisher delivers budget alert notifications. A nil publisher
// disables alerting without affecting writes.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// TransactionService orchestrates transaction writes, member assignment
// checks, and post-write budget evaluation.
type TransactionService struct {
	repo    *storage.Repository
	budgets *BudgetService
	alerts  AlertPublisher
}

func NewTransactionService(repo *storage.Repository, budgets *BudgetService, alerts AlertPublisher) *TransactionService {
	return &TransactionService{
		repo:    repo,
		budgets: budgets,
		alerts:  alerts,
	}
}

// Create validates and saves a transaction, then re-evaluates the
// user's budgets. Alert delivery is best-effort: the write succeeds
// even when publishing fails.
func (s *TransactionService) Create(ctx context.Context, t *core.Transaction) error {
	if err := s.prepare(ctx, t); err != nil {
		return err
	}
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	if t.Kind == core.Expense {
		s.evaluateAndNotify(ctx, t.UserID)
	}
	return nil
}

// Update replaces a transaction and its member assignments wholesale.
func (s *TransactionService) Update(ctx context.Context, t *core.Transaction) error {
	existing, err := s.repo.GetTransaction(ctx, t.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if existing.UserID != t.UserID {
		return ErrNotOwner
	}
	t.CreatedAt = existing.CreatedAt

	if err := s.prepare(ctx, t); err != nil {
		return err
	}
	if err := s.repo.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if t.Kind == core.Expense {
		s.evaluateAndNotify(ctx, t.UserID)
	}
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.DeleteTransaction(ctx, id, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id, userID string) (*core.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.UserID != userID {
		return nil, ErrNotOwner
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, userID)
}

func (s *TransactionService) ListRecent(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return s.repo.ListRecentTransactions(ctx, userID, limit)
}

// prepare normalizes and validates a transaction before persistence.
// Income is never split, so member assignments are dropped for it.
func (s *TransactionService) prepare(ctx context.Context, t *core.Transaction) error {
	if t.Kind == core.Income {
		t.Members = nil
		t.UserParticipates = true
	}
	if err := t.Validate(); err != nil {
		return err
	}

	if len(t.Members) > 0 {
		owned, err := s.repo.ListMembers(ctx, t.UserID)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(owned))
		for _, m := range owned {
			names[m.ID] = m.Name
		}
		for i, ref := range t.Members {
			name, ok := names[ref.ID]
			if !ok {
				return ErrUnknownMember
			}
			t.Members[i].Name = name
		}
	}
	return nil
}

// evaluateAndNotify re-checks the user's active budgets and publishes
// an alert for each one past its threshold.
func (s *TransactionService) evaluateAndNotify(ctx context.Context, userID string) {
	if s.alerts == nil || s.budgets == nil {
		return
	}

	evals, err := s.budgets.EvaluateAll(ctx, userID, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to evaluate budgets after write",
			"user_id", userID, "error", err)
		return
	}

	for _, eval := range evals {
		if !eval.Status.ShouldAlert || !eval.Status.NotificationsEnabled {
			continue
		}
		msg := amqp.NewBudgetAlertMessage(eval.Budget, eval.Status, userID, eval.MemberName)
		if err := s.alerts.PublishBudgetAlert(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				"budget_id", eval.Budget.ID, "error", err)
		}
	}
}
