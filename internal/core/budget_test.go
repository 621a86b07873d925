package core

import (
	"errors"
	"testing"
	"time"
)

func userBudget(ceilingCents int64, threshold float64) Budget {
	return Budget{
		ID:                   "b1",
		Ceiling:              Money{Cents: ceilingCents},
		Period:               Monthly,
		IsActive:             true,
		AlertThreshold:       threshold,
		NotificationsEnabled: true,
		UserID:               "u1",
	}
}

func TestPercentageUsed(t *testing.T) {
	b := userBudget(100000, 80) // £1000

	if got := b.PercentageUsed(b.Ceiling.Amount()); got != 100 {
		t.Fatalf("percentage at ceiling = %v, want exactly 100", got)
	}
	if got := b.PercentageUsed(0); got != 0 {
		t.Fatalf("percentage at zero = %v, want 0", got)
	}
	if got := b.PercentageUsed(500); got != 50 {
		t.Fatalf("percentage at half = %v, want 50", got)
	}
}

func TestAlertStatusClassification(t *testing.T) {
	cases := []struct {
		name     string
		spending float64
		want     BudgetStatus
	}{
		{"within budget", 100, StatusWithinBudget},
		{"approaching threshold", 700, StatusApproachingThreshold},
		{"just below approach band", 699, StatusWithinBudget},
		{"threshold reached", 800, StatusAlertThresholdReached},
		{"between threshold and ceiling", 999, StatusAlertThresholdReached},
		{"at ceiling", 1000, StatusOverBudget},
		{"over ceiling", 1100, StatusOverBudget},
	}
	b := userBudget(100000, 80) // £1000, alert at 80%
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := b.AlertStatus(tc.spending)
			if st.Status != tc.want {
				t.Fatalf("spending %v: status = %q, want %q", tc.spending, st.Status, tc.want)
			}
		})
	}
}

func TestAlertStatusScenarioThresholdReached(t *testing.T) {
	// ceiling £1000, threshold 80, spent £800
	b := userBudget(100000, 80)
	st := b.AlertStatus(800)

	if st.PercentageUsed != 80.00 {
		t.Fatalf("percentage used = %v, want 80.00", st.PercentageUsed)
	}
	if st.Status != StatusAlertThresholdReached {
		t.Fatalf("status = %q, want %q", st.Status, StatusAlertThresholdReached)
	}
	if !st.ShouldAlert {
		t.Fatal("expected alert at threshold")
	}
	if st.AmountRemaining != 200.00 {
		t.Fatalf("amount remaining = %v, want 200.00", st.AmountRemaining)
	}
}

func TestAlertStatusScenarioOverBudget(t *testing.T) {
	// ceiling £1000, threshold 80, spent £1100
	b := userBudget(100000, 80)
	st := b.AlertStatus(1100)

	if st.Status != StatusOverBudget {
		t.Fatalf("status = %q, want %q", st.Status, StatusOverBudget)
	}
	if st.AmountRemaining != -100.00 {
		t.Fatalf("amount remaining = %v, want -100.00", st.AmountRemaining)
	}
}

func TestInvalidCeilingDegrades(t *testing.T) {
	b := userBudget(0, 80)
	st := b.AlertStatus(50)

	if st.Status != StatusInvalidBudget {
		t.Fatalf("status = %q, want %q", st.Status, StatusInvalidBudget)
	}
	if st.ShouldAlert || b.ShouldAlert(50) {
		t.Fatal("invalid budget must never alert")
	}
	if st.PercentageUsed != 0 || st.AmountRemaining != 0 {
		t.Fatalf("degraded status should zero out numbers, got %+v", st)
	}
}

func TestNotificationsDisabledSuppressesAlert(t *testing.T) {
	b := userBudget(100000, 80)
	b.NotificationsEnabled = false

	if b.ShouldAlert(5000) {
		t.Fatal("alert fired with notifications disabled")
	}
	st := b.AlertStatus(5000)
	if st.ShouldAlert {
		t.Fatal("alert status fired with notifications disabled")
	}
	// The classification itself is still reported.
	if st.Status != StatusOverBudget {
		t.Fatalf("status = %q, want %q", st.Status, StatusOverBudget)
	}
}

func TestOwnershipValidation(t *testing.T) {
	b := userBudget(100000, 80)

	b.UserID, b.MemberID = "", ""
	if err := b.ValidateOwnership(); !errors.Is(err, ErrBudgetNoOwner) {
		t.Fatalf("no owner: got %v, want %v", err, ErrBudgetNoOwner)
	}

	b.UserID, b.MemberID = "u1", "m1"
	if err := b.ValidateOwnership(); !errors.Is(err, ErrBudgetBothOwners) {
		t.Fatalf("both owners: got %v, want %v", err, ErrBudgetBothOwners)
	}

	b.UserID, b.MemberID = "", "m1"
	if err := b.ValidateOwnership(); err != nil {
		t.Fatalf("member owner: got %v, want nil", err)
	}
}

func TestScopePredicates(t *testing.T) {
	b := userBudget(100000, 80)
	if !b.IsUserBudget() || b.IsMemberBudget() {
		t.Fatal("expected user budget")
	}
	if !b.IsTotalBudget() || b.IsCategoryBudget() {
		t.Fatal("expected total budget")
	}

	b.UserID, b.MemberID = "", "m1"
	b.Category = CategoryFood
	if b.IsUserBudget() || !b.IsMemberBudget() {
		t.Fatal("expected member budget")
	}
	if b.IsTotalBudget() || !b.IsCategoryBudget() {
		t.Fatal("expected category budget")
	}
	if got := b.CategoryLabel(); got != "Food" {
		t.Fatalf("category label = %q, want Food", got)
	}
}

func TestPauseUnpause(t *testing.T) {
	b := userBudget(100000, 80)
	before := time.Now().UTC()

	b.Pause()
	if !b.IsPaused() || b.IsActive {
		t.Fatal("expected paused budget")
	}
	if b.UpdatedAt.Before(before) {
		t.Fatal("pause did not stamp UpdatedAt")
	}

	b.Unpause()
	if b.IsPaused() || !b.IsActive {
		t.Fatal("expected active budget")
	}
}

func TestBudgetValidate(t *testing.T) {
	good := userBudget(100000, 80)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Budget{
		func() Budget { b := userBudget(0, 80); return b }(),
		func() Budget { b := userBudget(100, 80); b.Period = "daily"; return b }(),
		func() Budget { b := userBudget(100, 101); return b }(),
		func() Budget { b := userBudget(100, -1); return b }(),
		func() Budget { b := userBudget(100, 80); b.Category = "Misc"; return b }(),
		func() Budget { b := userBudget(100, 80); b.MemberID = "m1"; return b }(),
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
