package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"famtrack/internal/core"
	"famtrack/internal/storage"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNotOwner      = errors.New("resource does not belong to user")
	ErrUnknownMember = errors.New("member does not belong to user")
)

// BudgetService owns budget lifecycle and spending evaluation.
type BudgetService struct {
	repo *storage.Repository
}

func NewBudgetService(repo *storage.Repository) *BudgetService {
	return &BudgetService{repo: repo}
}

// BudgetEvaluation pairs a budget with its computed alert status.
type BudgetEvaluation struct {
	Budget     core.Budget
	Status     core.AlertStatus
	MemberName string
	Spending   float64
}

// Create validates and persists a budget on behalf of userID. Member
// budgets are checked against the user's own member list.
func (s *BudgetService) Create(ctx context.Context, userID string, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.UserID != "" && b.UserID != userID {
		return ErrNotOwner
	}
	if b.MemberID != "" {
		if err := s.checkMemberOwnership(ctx, userID, b.MemberID); err != nil {
			return err
		}
	}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

// Update replaces a budget's editable fields, keeping its owner scope.
func (s *BudgetService) Update(ctx context.Context, userID string, b *core.Budget) error {
	existing, err := s.authorize(ctx, userID, b.ID)
	if err != nil {
		return err
	}
	// Owner scope is fixed at creation
	b.UserID = existing.UserID
	b.MemberID = existing.MemberID
	b.CreatedAt = existing.CreatedAt
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// Get returns a budget after checking it belongs to userID.
func (s *BudgetService) Get(ctx context.Context, userID, id string) (*core.Budget, error) {
	return s.authorize(ctx, userID, id)
}

// List returns every budget the user can see, including those scoped
// to the user's members.
func (s *BudgetService) List(ctx context.Context, userID string, activeOnly bool) ([]core.Budget, error) {
	return s.repo.ListBudgets(ctx, userID, activeOnly)
}

// Pause deactivates a budget without deleting it, preserving history.
func (s *BudgetService) Pause(ctx context.Context, userID, id string) error {
	return s.setActive(ctx, userID, id, false)
}

// Unpause reactivates a paused budget.
func (s *BudgetService) Unpause(ctx context.Context, userID, id string) error {
	return s.setActive(ctx, userID, id, true)
}

func (s *BudgetService) setActive(ctx context.Context, userID, id string, active bool) error {
	b, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}
	if active {
		b.Unpause()
	} else {
		b.Pause()
	}
	if err := s.repo.SetBudgetActive(ctx, id, active, b.UpdatedAt); err != nil {
		return fmt.Errorf("toggle budget: %w", err)
	}
	return nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// PeriodWindow returns the half-open interval [from, to) the budget
// period covers at the given instant. Weeks start on Monday; months
// and years are calendar aligned.
func PeriodWindow(p core.Period, now time.Time) (time.Time, time.Time) {
	switch p {
	case core.Weekly:
		day := now
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		from := time.Date(day.Year(), day.Month(), day.Day()-offset, 0, 0, 0, 0, day.Location())
		return from, from.AddDate(0, 0, 7)
	case core.Yearly:
		from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return from, from.AddDate(1, 0, 0)
	default: // monthly
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return from, from.AddDate(0, 1, 0)
	}
}

// CurrentSpending computes how much of the budget's window has been
// consumed. User budgets count the full amount of each expense the user
// recorded; member budgets count only that member's per-head share.
func (s *BudgetService) CurrentSpending(ctx context.Context, b core.Budget, now time.Time) (float64, error) {
	from, to := PeriodWindow(b.Period, now)

	if b.IsUserBudget() {
		cents, err := s.repo.SumExpenses(ctx, b.UserID, b.Category, from, to)
		if err != nil {
			return 0, err
		}
		return float64(cents) / 100.0, nil
	}

	rows, err := s.repo.ListMemberShareRows(ctx, b.MemberID, b.Category, from, to)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, row := range rows {
		split := core.SharedSplit{
			Amount:           core.Money{Cents: row.AmountCents},
			MemberCount:      row.MemberCount,
			UserParticipates: row.UserParticipates,
		}
		total += split.CostPerHead()
	}
	return total, nil
}

// Evaluate computes the alert status of one budget at the given instant.
func (s *BudgetService) Evaluate(ctx context.Context, b core.Budget, now time.Time) (BudgetEvaluation, error) {
	spending, err := s.CurrentSpending(ctx, b, now)
	if err != nil {
		return BudgetEvaluation{}, fmt.Errorf("current spending for budget %s: %w", b.ID, err)
	}

	eval := BudgetEvaluation{
		Budget:   b,
		Status:   b.AlertStatus(spending),
		Spending: spending,
	}
	if b.IsMemberBudget() {
		member, err := s.repo.GetMember(ctx, b.MemberID)
		if err != nil {
			return BudgetEvaluation{}, err
		}
		if member != nil {
			eval.MemberName = member.Name
		}
	}
	return eval, nil
}

// EvaluateAll evaluates every active budget visible to the user.
func (s *BudgetService) EvaluateAll(ctx context.Context, userID string, now time.Time) ([]BudgetEvaluation, error) {
	budgets, err := s.repo.ListBudgets(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	evals := make([]BudgetEvaluation, 0, len(budgets))
	for _, b := range budgets {
		eval, err := s.Evaluate(ctx, b, now)
		if err != nil {
			return nil, err
		}
		evals = append(evals, eval)
	}
	return evals, nil
}

func (s *BudgetService) authorize(ctx context.Context, userID, id string) (*core.Budget, error) {
	b, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	if b.IsUserBudget() {
		if b.UserID != userID {
			return nil, ErrNotOwner
		}
		return b, nil
	}
	if err := s.checkMemberOwnership(ctx, userID, b.MemberID); err != nil {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (s *BudgetService) checkMemberOwnership(ctx context.Context, userID, memberID string) error {
	member, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil || member.UserID != userID {
		return ErrUnknownMember
	}
	return nil
}
