package amqp

import (
	"testing"
	"time"

	"famtrack/internal/core"
)

func TestBudgetAlertMessageRoundTrip(t *testing.T) {
	b := core.Budget{
		ID:       "b1",
		UserID:   "u1",
		Ceiling:  core.Money{Cents: 100000},
		Period:   core.Monthly,
		Category: core.CategoryFood,
	}
	st := core.AlertStatus{
		Status:               core.StatusAlertThresholdReached,
		PercentageUsed:       80,
		AmountRemaining:      200,
		AlertThreshold:       80,
		ShouldAlert:          true,
		NotificationsEnabled: true,
	}

	msg := NewBudgetAlertMessage(b, st, "u1", "")
	if msg.CategoryLabel != "Food" {
		t.Errorf("CategoryLabel = %q, want Food", msg.CategoryLabel)
	}
	if msg.OwnerLabel != "User Budget" {
		t.Errorf("OwnerLabel = %q, want User Budget", msg.OwnerLabel)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Minute {
		t.Errorf("unexpected timestamp %v", msg.Timestamp)
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := BudgetAlertMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.BudgetID != "b1" || got.Status != core.StatusAlertThresholdReached {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.PercentageUsed != 80 || got.AmountRemaining != 200 {
		t.Errorf("numeric fields lost: %+v", got)
	}
}

func TestBudgetAlertMessageFromJSONInvalid(t *testing.T) {
	if _, err := BudgetAlertMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
