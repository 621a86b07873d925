package services

import (
	"context"
	"fmt"
	"time"

	"famtrack/internal/core"
	"famtrack/internal/storage"
)

// AnalyticsService derives dashboard and report figures from stored
// transactions. All monetary values are in pounds.
type AnalyticsService struct {
	repo    *storage.Repository
	budgets *BudgetService
}

func NewAnalyticsService(repo *storage.Repository, budgets *BudgetService) *AnalyticsService {
	return &AnalyticsService{repo: repo, budgets: budgets}
}

// Totals is the all-time income/expense balance of a user.
type Totals struct {
	Income  float64
	Expense float64
	Net     float64
}

// CategoryBreakdownRow is one slice of the spending-by-category report.
type CategoryBreakdownRow struct {
	Label  string
	Amount float64
}

// MonthCashflow is one month of the cashflow report.
type MonthCashflow struct {
	Year    int
	Month   time.Month
	Income  float64
	Expense float64
	Net     float64
}

// MemberStats summarizes a member's lifetime attribution.
type MemberStats struct {
	Member           core.Member
	TransactionCount int
	TotalShare       float64
}

// Dashboard bundles everything the landing page renders.
type Dashboard struct {
	Totals        Totals
	MonthSpending float64
	Recent        []core.Transaction
	Breakdown     []CategoryBreakdownRow
	Budgets       []BudgetEvaluation
}

// Totals returns the user's all-time income, expense and net figures.
func (s *AnalyticsService) Totals(ctx context.Context, userID string) (Totals, error) {
	income, err := s.repo.TotalByKind(ctx, userID, core.Income)
	if err != nil {
		return Totals{}, fmt.Errorf("total income: %w", err)
	}
	expense, err := s.repo.TotalByKind(ctx, userID, core.Expense)
	if err != nil {
		return Totals{}, fmt.Errorf("total expense: %w", err)
	}
	return Totals{
		Income:  float64(income) / 100.0,
		Expense: float64(expense) / 100.0,
		Net:     float64(income-expense) / 100.0,
	}, nil
}

// CategoryBreakdown aggregates the user's expenses per category,
// largest first. Uncategorized spending appears under its own label.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, userID string) ([]CategoryBreakdownRow, error) {
	sums, err := s.repo.CategorySums(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows := make([]CategoryBreakdownRow, 0, len(sums))
	for _, sum := range sums {
		label := string(sum.Category)
		if label == "" {
			label = core.UncategorizedLabel
		}
		rows = append(rows, CategoryBreakdownRow{
			Label:  label,
			Amount: float64(sum.Cents) / 100.0,
		})
	}
	return rows, nil
}

// Cashflow returns per-month income/expense/net figures for the last
// months calendar months, oldest first.
func (s *AnalyticsService) Cashflow(ctx context.Context, userID string, months int, now time.Time) ([]MonthCashflow, error) {
	if months < 1 {
		months = 1
	}

	flows := make([]MonthCashflow, 0, months)
	for i := months - 1; i >= 0; i-- {
		ref := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		from := ref
		to := ref.AddDate(0, 1, 0)

		txs, err := s.repo.ListTransactionsBetween(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}

		flow := MonthCashflow{Year: ref.Year(), Month: ref.Month()}
		for _, t := range txs {
			switch t.Kind {
			case core.Income:
				flow.Income += t.Amount.Amount()
			case core.Expense:
				flow.Expense += t.Amount.Amount()
			}
		}
		flow.Net = flow.Income - flow.Expense
		flows = append(flows, flow)
	}
	return flows, nil
}

// MemberStats computes each member's lifetime assigned-transaction
// count and total per-head share.
func (s *AnalyticsService) MemberStats(ctx context.Context, userID string) ([]MemberStats, error) {
	members, err := s.repo.ListMembers(ctx, userID)
	if err != nil {
		return nil, err
	}

	from := time.Unix(0, 0)
	to := time.Now().AddDate(1, 0, 0)

	stats := make([]MemberStats, 0, len(members))
	for _, m := range members {
		rows, err := s.repo.ListMemberShareRows(ctx, m.ID, "", from, to)
		if err != nil {
			return nil, err
		}

		st := MemberStats{Member: m, TransactionCount: len(rows)}
		for _, row := range rows {
			split := core.SharedSplit{
				Amount:           core.Money{Cents: row.AmountCents},
				MemberCount:      row.MemberCount,
				UserParticipates: row.UserParticipates,
			}
			st.TotalShare += split.CostPerHead()
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// Dashboard assembles the landing page data in one call.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID string, now time.Time) (*Dashboard, error) {
	totals, err := s.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}

	from, to := PeriodWindow(core.Monthly, now)
	monthCents, err := s.repo.SumExpenses(ctx, userID, "", from, to)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.ListRecentTransactions(ctx, userID, 10)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.CategoryBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}

	evals, err := s.budgets.EvaluateAll(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Totals:        totals,
		MonthSpending: float64(monthCents) / 100.0,
		Recent:        recent,
		Breakdown:     breakdown,
		Budgets:       evals,
	}, nil
}
