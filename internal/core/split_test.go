package core

import (
	"math"
	"testing"
	"time"
)

const eps = 1e-9

func expense(cents int64, memberCount int, participates bool) Transaction {
	members := make([]MemberRef, memberCount)
	for i := range members {
		members[i] = MemberRef{ID: string(rune('a' + i)), Name: "Member"}
	}
	return Transaction{
		ID:               "t1",
		UserID:           "u1",
		Amount:           Money{Cents: cents},
		Kind:             Expense,
		Category:         CategoryFood,
		OccurredAt:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		UserParticipates: participates,
		Members:          members,
	}
}

func TestPersonalTransaction(t *testing.T) {
	tx := expense(10000, 0, true)

	if !tx.IsPersonal() || tx.IsShared() || tx.IsMembersOnly() {
		t.Fatalf("expected personal classification, got personal=%v shared=%v membersOnly=%v",
			tx.IsPersonal(), tx.IsShared(), tx.IsMembersOnly())
	}
	if got := tx.CostPerHead(); got != 100.0 {
		t.Fatalf("cost per head = %v, want 100", got)
	}
	if got := tx.UserShare(); got != 100.0 {
		t.Fatalf("user share = %v, want 100", got)
	}
	if got := tx.MembersTotalShare(); got != 0 {
		t.Fatalf("members total share = %v, want 0", got)
	}
	if got := tx.ClassificationLabel(); got != LabelPersonal {
		t.Fatalf("label = %q, want %q", got, LabelPersonal)
	}
}

func TestSharedWithUserParticipating(t *testing.T) {
	// Scenario: £100.00 shared with 1 member, user participates.
	tx := expense(10000, 1, true)

	if got := tx.CostPerHead(); math.Abs(got-50.0) > eps {
		t.Fatalf("cost per head = %v, want 50", got)
	}
	if got := tx.UserShare(); math.Abs(got-50.0) > eps {
		t.Fatalf("user share = %v, want 50", got)
	}
	if got := tx.MembersTotalShare(); math.Abs(got-50.0) > eps {
		t.Fatalf("members total share = %v, want 50", got)
	}
	if got := tx.ClassificationLabel(); got != LabelShared {
		t.Fatalf("label = %q, want %q", got, LabelShared)
	}
}

func TestMembersOnlyExpense(t *testing.T) {
	// Scenario: £60.00 with 2 members, user opted out of the split.
	tx := expense(6000, 2, false)

	if !tx.IsMembersOnly() {
		t.Fatal("expected members-only classification")
	}
	if got := tx.CostPerHead(); math.Abs(got-30.0) > eps {
		t.Fatalf("cost per head = %v, want 30", got)
	}
	if got := tx.UserShare(); got != 0 {
		t.Fatalf("user share = %v, want 0", got)
	}
	if got := tx.MembersTotalShare(); math.Abs(got-60.0) > eps {
		t.Fatalf("members total share = %v, want 60", got)
	}
	if got := tx.ClassificationLabel(); got != LabelMembersOnly {
		t.Fatalf("label = %q, want %q", got, LabelMembersOnly)
	}
}

func TestSharesReconstituteAmount(t *testing.T) {
	cases := []struct {
		cents        int64
		members      int
		participates bool
	}{
		{10000, 1, true},
		{10000, 2, true},
		{10000, 3, true},
		{9999, 7, true},
		{6000, 2, false},
		{1, 3, false},
	}
	for _, tc := range cases {
		tx := expense(tc.cents, tc.members, tc.participates)
		sum := tx.UserShare() + tx.MembersTotalShare()
		if math.Abs(sum-tx.Amount.Amount()) > 1e-6 {
			t.Fatalf("cents=%d members=%d participates=%v: shares sum to %v, want %v",
				tc.cents, tc.members, tc.participates, sum, tx.Amount.Amount())
		}
	}
}

func TestUserNetPosition(t *testing.T) {
	tx := expense(10000, 1, true)
	// User fronts £100, the one member owes £50 back.
	if got := tx.UserNetPosition(); math.Abs(got-50.0) > eps {
		t.Fatalf("net position = %v, want 50", got)
	}

	solo := expense(10000, 0, true)
	if got := solo.UserNetPosition(); got != 100.0 {
		t.Fatalf("personal net position = %v, want 100", got)
	}
}

func TestZeroParticipantsDegradesToZero(t *testing.T) {
	// Pathological shape: shared variant constructed directly with no
	// effective participants must not divide by zero.
	s := SharedSplit{Amount: Money{Cents: 5000}, MemberCount: 0, UserParticipates: false}
	if got := s.CostPerHead(); got != 0 {
		t.Fatalf("cost per head = %v, want 0", got)
	}
	if got := s.MembersTotalShare(); got != 0 {
		t.Fatalf("members total share = %v, want 0", got)
	}
}

func TestIncomeIsNeverSplit(t *testing.T) {
	tx := expense(10000, 2, true)
	tx.Kind = Income
	if _, ok := tx.Split().(PersonalSplit); !ok {
		t.Fatalf("income split = %T, want PersonalSplit", tx.Split())
	}
	if got := tx.MembersTotalShare(); got != 0 {
		t.Fatalf("income members total share = %v, want 0", got)
	}
}

func TestDerivedValuesAreIdempotent(t *testing.T) {
	tx := expense(9999, 3, true)
	first := []float64{tx.CostPerHead(), tx.UserShare(), tx.MembersTotalShare(), tx.UserNetPosition()}
	second := []float64{tx.CostPerHead(), tx.UserShare(), tx.MembersTotalShare(), tx.UserNetPosition()}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("derived value %d changed between calls: %v != %v", i, first[i], second[i])
		}
	}
}

func TestCategoryLabelFallback(t *testing.T) {
	tx := expense(1000, 0, true)
	if got := tx.CategoryLabel(); got != "Food" {
		t.Fatalf("category label = %q, want Food", got)
	}
	tx.Category = ""
	if got := tx.CategoryLabel(); got != UncategorizedLabel {
		t.Fatalf("category label = %q, want %q", got, UncategorizedLabel)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := expense(100, 1, true)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		func() Transaction { tx := expense(0, 0, true); return tx }(),
		func() Transaction { tx := expense(100, 0, true); tx.Kind = "transfer"; return tx }(),
		func() Transaction { tx := expense(100, 0, true); tx.OccurredAt = time.Time{}; return tx }(),
		func() Transaction { tx := expense(100, 0, true); tx.Category = "Groceries"; return tx }(),
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
