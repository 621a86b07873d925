package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"famtrack/internal/amqp"
	"famtrack/internal/core"
)

type capturePublisher struct {
	mu       sync.Mutex
	messages []*amqp.BudgetAlertMessage
	fail     error
}

func (p *capturePublisher) PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturePublisher) published() []*amqp.BudgetAlertMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.BudgetAlertMessage(nil), p.messages...)
}

func TestCreateTransactionResolvesMemberNames(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewTransactionService(repo, NewBudgetService(repo), nil)
	ctx := context.Background()
	user := seedUser(t, repo)
	member := seedMember(t, repo, user.ID, "Sarah")

	tx := expense(user.ID, 6000, time.Now(), false, core.MemberRef{ID: member.ID})
	if err := svc.Create(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, tx.ID, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].Name != "Sarah" {
		t.Errorf("members = %+v, want Sarah", got.Members)
	}
	if got.ClassificationLabel() != core.LabelMembersOnly {
		t.Errorf("classification = %q, want %q", got.ClassificationLabel(), core.LabelMembersOnly)
	}
}

func TestCreateTransactionRejectsForeignMember(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewTransactionService(repo, NewBudgetService(repo), nil)
	ctx := context.Background()
	user := seedUser(t, repo)

	tx := expense(user.ID, 6000, time.Now(), true, core.MemberRef{ID: "not-yours"})
	if err := svc.Create(ctx, tx); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("Create = %v, want ErrUnknownMember", err)
	}
}

func TestIncomeNeverCarriesMembers(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewTransactionService(repo, NewBudgetService(repo), nil)
	ctx := context.Background()
	user := seedUser(t, repo)
	member := seedMember(t, repo, user.ID, "Sarah")

	tx := &core.Transaction{
		UserID:     user.ID,
		Amount:     core.Money{Cents: 250000},
		Kind:       core.Income,
		OccurredAt: time.Now(),
		Members:    []core.MemberRef{{ID: member.ID}},
	}
	if err := svc.Create(ctx, tx); err != nil {
		t.Fatalf("create income: %v", err)
	}

	got, err := svc.Get(ctx, tx.ID, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Members) != 0 {
		t.Errorf("income carries members: %+v", got.Members)
	}
	if got.MembersTotalShare() != 0 {
		t.Errorf("income has member share %v", got.MembersTotalShare())
	}
}

func TestExpenseWritePublishesAlert(t *testing.T) {
	repo := newTestRepo(t)
	budgets := NewBudgetService(repo)
	pub := &capturePublisher{}
	svc := NewTransactionService(repo, budgets, pub)
	ctx := context.Background()
	user := seedUser(t, repo)

	b := &core.Budget{
		Ceiling:              core.Money{Cents: 100000},
		Period:               core.Monthly,
		IsActive:             true,
		AlertThreshold:       80,
		NotificationsEnabled: true,
		UserID:               user.ID,
	}
	if err := budgets.Create(ctx, user.ID, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	// £500 stays under the threshold, no alert
	if err := svc.Create(ctx, expense(user.ID, 50000, time.Now(), true)); err != nil {
		t.Fatalf("create first expense: %v", err)
	}
	if got := pub.published(); len(got) != 0 {
		t.Fatalf("unexpected alert below threshold: %+v", got)
	}

	// Another £400 pushes usage to 90%
	if err := svc.Create(ctx, expense(user.ID, 40000, time.Now(), true)); err != nil {
		t.Fatalf("create second expense: %v", err)
	}
	got := pub.published()
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want 1", len(got))
	}
	if got[0].Status != core.StatusAlertThresholdReached {
		t.Errorf("alert status = %s, want %s", got[0].Status, core.StatusAlertThresholdReached)
	}
	if got[0].BudgetID != b.ID || got[0].UserID != user.ID {
		t.Errorf("alert identity mismatch: %+v", got[0])
	}
}

func TestAlertsSuppressedWhenNotificationsDisabled(t *testing.T) {
	repo := newTestRepo(t)
	budgets := NewBudgetService(repo)
	pub := &capturePublisher{}
	svc := NewTransactionService(repo, budgets, pub)
	ctx := context.Background()
	user := seedUser(t, repo)

	b := &core.Budget{
		Ceiling:              core.Money{Cents: 100000},
		Period:               core.Monthly,
		IsActive:             true,
		AlertThreshold:       80,
		NotificationsEnabled: false,
		UserID:               user.ID,
	}
	if err := budgets.Create(ctx, user.ID, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	if err := svc.Create(ctx, expense(user.ID, 150000, time.Now(), true)); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := pub.published(); len(got) != 0 {
		t.Errorf("alert published despite disabled notifications: %+v", got)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	repo := newTestRepo(t)
	budgets := NewBudgetService(repo)
	pub := &capturePublisher{fail: errors.New("broker down")}
	svc := NewTransactionService(repo, budgets, pub)
	ctx := context.Background()
	user := seedUser(t, repo)

	b := &core.Budget{
		Ceiling:              core.Money{Cents: 100000},
		Period:               core.Monthly,
		IsActive:             true,
		AlertThreshold:       80,
		NotificationsEnabled: true,
		UserID:               user.ID,
	}
	if err := budgets.Create(ctx, user.ID, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	tx := expense(user.ID, 150000, time.Now(), true)
	if err := svc.Create(ctx, tx); err != nil {
		t.Fatalf("write failed because of broker: %v", err)
	}

	got, err := svc.Get(ctx, tx.ID, user.ID)
	if err != nil || got == nil {
		t.Fatalf("transaction not saved: %v", err)
	}
}

func TestUpdateTransactionOwnership(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewTransactionService(repo, NewBudgetService(repo), nil)
	ctx := context.Background()
	user := seedUser(t, repo)

	tx := expense(user.ID, 6000, time.Now(), true)
	if err := svc.Create(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	stolen := *tx
	stolen.UserID = "intruder"
	if err := svc.Update(ctx, &stolen); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Update by intruder = %v, want ErrNotOwner", err)
	}
}
