package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Budget status classification, first match wins in AlertStatus.
const (
	StatusInvalidBudget         BudgetStatus = "invalid_budget"
	StatusOverBudget            BudgetStatus = "over_budget"
	StatusAlertThresholdReached BudgetStatus = "alert_threshold_reached"
	StatusApproachingThreshold  BudgetStatus = "approaching_threshold"
	StatusWithinBudget          BudgetStatus = "within_budget"
)

// DefaultAlertThreshold is the percentage of the ceiling at which a
// notification becomes due for newly created budgets.
const DefaultAlertThreshold = 80.0

type (
	// Period is the time window a budget ceiling applies to.
	Period string

	BudgetStatus string

	// Budget is a spending ceiling owned by exactly one of a user or a
	// member, optionally restricted to one category (empty Category
	// means all categories).
	Budget struct {
		ID                   string
		Ceiling              Money
		Period               Period
		IsActive             bool
		AlertThreshold       float64 // percent of ceiling, 0-100
		NotificationsEnabled bool
		UserID               string
		MemberID             string
		Category             Category // empty means total budget
		CreatedAt            time.Time
		UpdatedAt            time.Time
	}

	// AlertStatus is the structured result of comparing current spending
	// against a budget ceiling.
	AlertStatus struct {
		PercentageUsed       float64
		AmountRemaining      float64
		AlertThreshold       float64
		ShouldAlert          bool
		Status               BudgetStatus
		NotificationsEnabled bool
	}
)

var (
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrInvalidThreshold   = errors.New("alert threshold must be between 0 and 100")
	ErrBudgetNoOwner      = errors.New("budget must belong to either a user or a member")
	ErrBudgetBothOwners   = errors.New("budget cannot belong to both user and member")
)

// ParsePeriod validates a budget period name.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// ValidateOwnership enforces the user-XOR-member scope invariant.
// Violations are construction-time validation errors, never silently
// resolved by picking one owner.
func (b Budget) ValidateOwnership() error {
	hasUser := b.UserID != ""
	hasMember := b.MemberID != ""
	if !hasUser && !hasMember {
		return ErrBudgetNoOwner
	}
	if hasUser && hasMember {
		return ErrBudgetBothOwners
	}
	return nil
}

// Validate checks a budget before it is persisted. A non-positive
// ceiling is rejected here; a stored budget that somehow carries one
// still degrades safely through AlertStatus.
func (b Budget) Validate() error {
	if err := b.Ceiling.Validate(); err != nil {
		return err
	}
	if _, err := ParsePeriod(string(b.Period)); err != nil {
		return err
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	if b.Category != "" {
		if _, err := ParseCategory(string(b.Category)); err != nil {
			return err
		}
	}
	return b.ValidateOwnership()
}

// IsUserBudget reports whether the budget is scoped to the user's own
// spending rather than a member's.
func (b Budget) IsUserBudget() bool {
	return b.UserID != "" && b.MemberID == ""
}

// IsMemberBudget reports whether the budget tracks one member's share.
func (b Budget) IsMemberBudget() bool {
	return b.MemberID != ""
}

// IsCategoryBudget reports whether the budget is restricted to one category.
func (b Budget) IsCategoryBudget() bool {
	return b.Category != ""
}

// IsTotalBudget reports whether the budget covers all categories.
func (b Budget) IsTotalBudget() bool {
	return b.Category == ""
}

// Pause deactivates the budget without deleting it, preserving its
// configuration for later reactivation.
func (b *Budget) Pause() {
	b.IsActive = false
	b.UpdatedAt = time.Now().UTC()
}

// Unpause reactivates the budget.
func (b *Budget) Unpause() {
	b.IsActive = true
	b.UpdatedAt = time.Now().UTC()
}

func (b Budget) IsPaused() bool {
	return !b.IsActive
}

// PercentageUsed is current spending as a percentage of the ceiling.
// A non-positive ceiling reports 0; callers get the degraded state
// through AlertStatus instead of a division by zero.
func (b Budget) PercentageUsed(currentSpending float64) float64 {
	if b.Ceiling.Cents <= 0 {
		return 0
	}
	return currentSpending / b.Ceiling.Amount() * 100
}

// ShouldAlert reports whether a user-facing alert is due for the given
// spending level.
func (b Budget) ShouldAlert(currentSpending float64) bool {
	if !b.NotificationsEnabled || b.Ceiling.Cents <= 0 {
		return false
	}
	return b.PercentageUsed(currentSpending) >= b.AlertThreshold
}

// AlertStatus compares the externally supplied spending figure against
// the ceiling. The spending figure must come from a consistent snapshot
// of the user's transactions; this method does not query anything.
func (b Budget) AlertStatus(currentSpending float64) AlertStatus {
	if b.Ceiling.Cents <= 0 {
		return AlertStatus{
			AlertThreshold:       b.AlertThreshold,
			Status:               StatusInvalidBudget,
			NotificationsEnabled: b.NotificationsEnabled,
		}
	}

	pct := b.PercentageUsed(currentSpending)
	remaining := b.Ceiling.Amount() - currentSpending

	var status BudgetStatus
	switch {
	case pct >= 100:
		status = StatusOverBudget
	case pct >= b.AlertThreshold:
		status = StatusAlertThresholdReached
	case pct >= b.AlertThreshold-10:
		status = StatusApproachingThreshold
	default:
		status = StatusWithinBudget
	}

	return AlertStatus{
		PercentageUsed:       round2(pct),
		AmountRemaining:      round2(remaining),
		AlertThreshold:       b.AlertThreshold,
		ShouldAlert:          b.ShouldAlert(currentSpending),
		Status:               status,
		NotificationsEnabled: b.NotificationsEnabled,
	}
}

// OwnerLabel returns a display name for the budget owner.
func (b Budget) OwnerLabel(memberName string) string {
	if b.IsUserBudget() {
		return "User Budget"
	}
	if memberName != "" {
		return memberName
	}
	return "Unknown"
}

// CategoryLabel returns the scoped category name, or a label covering
// all categories for total budgets.
func (b Budget) CategoryLabel() string {
	if b.Category == "" {
		return "Total Expenses"
	}
	return string(b.Category)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
