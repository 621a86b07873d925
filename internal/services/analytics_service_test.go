package services

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"famtrack/internal/core"
)

func TestTotalsAndCategoryBreakdown(t *testing.T) {
	repo := newTestRepo(t)
	budgets := NewBudgetService(repo)
	svc := NewAnalyticsService(repo, budgets)
	ctx := context.Background()
	user := seedUser(t, repo)
	now := time.Now()

	salary := &core.Transaction{
		UserID:     user.ID,
		Amount:     core.Money{Cents: 250000},
		Kind:       core.Income,
		OccurredAt: now,
	}
	if err := repo.CreateTransaction(ctx, salary); err != nil {
		t.Fatalf("create income: %v", err)
	}
	groceries := expense(user.ID, 12050, now, true)
	if err := repo.CreateTransaction(ctx, groceries); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	uncategorized := expense(user.ID, 5000, now, true)
	uncategorized.Category = ""
	if err := repo.CreateTransaction(ctx, uncategorized); err != nil {
		t.Fatalf("create uncategorized expense: %v", err)
	}

	totals, err := svc.Totals(ctx, user.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if math.Abs(totals.Income-2500.0) > 1e-9 {
		t.Errorf("Income = %v, want 2500", totals.Income)
	}
	if math.Abs(totals.Expense-170.50) > 1e-9 {
		t.Errorf("Expense = %v, want 170.50", totals.Expense)
	}
	if math.Abs(totals.Net-2329.50) > 1e-9 {
		t.Errorf("Net = %v, want 2329.50", totals.Net)
	}

	rows, err := svc.CategoryBreakdown(ctx, user.ID)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d breakdown rows, want 2", len(rows))
	}
	// Largest category first
	if rows[0].Label != string(core.CategoryFood) || math.Abs(rows[0].Amount-120.50) > 1e-9 {
		t.Errorf("rows[0] = %+v, want Food 120.50", rows[0])
	}
	if rows[1].Label != core.UncategorizedLabel {
		t.Errorf("rows[1].Label = %q, want %q", rows[1].Label, core.UncategorizedLabel)
	}
}

func TestCashflowMonths(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewAnalyticsService(repo, NewBudgetService(repo))
	ctx := context.Background()
	user := seedUser(t, repo)
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	may := expense(user.ID, 20000, time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC), true)
	june := expense(user.ID, 10000, time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), true)
	juneIncome := &core.Transaction{
		UserID:     user.ID,
		Amount:     core.Money{Cents: 150000},
		Kind:       core.Income,
		OccurredAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, tx := range []*core.Transaction{may, june, juneIncome} {
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	flows, err := svc.Cashflow(ctx, user.ID, 3, now)
	if err != nil {
		t.Fatalf("cashflow: %v", err)
	}
	if len(flows) != 3 {
		t.Fatalf("got %d months, want 3", len(flows))
	}
	if flows[0].Month != time.April || flows[2].Month != time.June {
		t.Errorf("month order wrong: %v ... %v", flows[0].Month, flows[2].Month)
	}
	if flows[1].Expense != 200.0 || flows[1].Income != 0 {
		t.Errorf("May = %+v, want expense 200", flows[1])
	}
	if flows[2].Net != 1400.0 {
		t.Errorf("June net = %v, want 1400", flows[2].Net)
	}
}

func TestMemberStatsLifetimeShares(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewAnalyticsService(repo, NewBudgetService(repo))
	ctx := context.Background()
	user := seedUser(t, repo)
	sarah := seedMember(t, repo, user.ID, "Sarah")
	tom := seedMember(t, repo, user.ID, "Tom")
	now := time.Now()

	// £90 across user + both members: £30 each
	shared := expense(user.ID, 9000, now, true,
		core.MemberRef{ID: sarah.ID}, core.MemberRef{ID: tom.ID})
	// £40 for Sarah alone, user not participating
	sarahOnly := expense(user.ID, 4000, now, false, core.MemberRef{ID: sarah.ID})
	for _, tx := range []*core.Transaction{shared, sarahOnly} {
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	stats, err := svc.MemberStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("member stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d member stats, want 2", len(stats))
	}

	byName := map[string]MemberStats{}
	for _, st := range stats {
		byName[st.Member.Name] = st
	}
	if st := byName["Sarah"]; st.TransactionCount != 2 || math.Abs(st.TotalShare-70.0) > 1e-9 {
		t.Errorf("Sarah = count %d share %v, want 2 and 70", st.TransactionCount, st.TotalShare)
	}
	if st := byName["Tom"]; st.TransactionCount != 1 || math.Abs(st.TotalShare-30.0) > 1e-9 {
		t.Errorf("Tom = count %d share %v, want 1 and 30", st.TransactionCount, st.TotalShare)
	}
}

func TestDashboard(t *testing.T) {
	repo := newTestRepo(t)
	budgets := NewBudgetService(repo)
	svc := NewAnalyticsService(repo, budgets)
	ctx := context.Background()
	user := seedUser(t, repo)
	now := time.Now()

	if err := repo.CreateTransaction(ctx, expense(user.ID, 8000, now, true)); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	b := &core.Budget{
		Ceiling:              core.Money{Cents: 10000},
		Period:               core.Monthly,
		IsActive:             true,
		AlertThreshold:       80,
		NotificationsEnabled: true,
		UserID:               user.ID,
	}
	if err := budgets.Create(ctx, user.ID, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	dash, err := svc.Dashboard(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if math.Abs(dash.MonthSpending-80.0) > 1e-9 {
		t.Errorf("MonthSpending = %v, want 80", dash.MonthSpending)
	}
	if len(dash.Recent) != 1 {
		t.Errorf("Recent = %d entries, want 1", len(dash.Recent))
	}
	if len(dash.Budgets) != 1 || dash.Budgets[0].Status.Status != core.StatusAlertThresholdReached {
		t.Errorf("budget evaluations wrong: %+v", dash.Budgets)
	}
}

func TestWriteCSV(t *testing.T) {
	repo := newTestRepo(t)
	exporter := NewExportService(repo)
	ctx := context.Background()
	user := seedUser(t, repo)
	member := seedMember(t, repo, user.ID, "Sarah")
	occurred := time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)

	tx := expense(user.ID, 12050, occurred, true, core.MemberRef{ID: member.ID, Name: "Sarah"})
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	var buf bytes.Buffer
	from := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	if err := exporter.WriteCSV(ctx, &buf, user.ID, from, to); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Date,Category,Type,Amount,Members,Personal" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-06-05,Food,expense,120.50,Sarah,false" {
		t.Errorf("record = %q", lines[1])
	}
}
