package http

import (
	"fmt"
	"strings"

	"famtrack/internal/core"
	"famtrack/internal/services"
	"famtrack/internal/storage"
)

// View models keep templates dumb: everything is pre-formatted here.

type transactionView struct {
	ID             string
	Date           string
	Category       string
	Kind           string
	Amount         string
	Classification string
	Members        string
	CostPerHead    string
	UserShare      string
	MembersShare   string
}

type budgetView struct {
	ID            string
	Owner         string
	Category      string
	Period        string
	Ceiling       string
	Spending      string
	Remaining     string
	Percentage    string
	Status        string
	StatusClass   string
	Active        bool
	Notifications bool
}

type memberOption struct {
	ID   string
	Name string
}

func formatPoundsFloat(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-£%.2f", -v)
	}
	return fmt.Sprintf("£%.2f", v)
}

func newTransactionView(t core.Transaction) transactionView {
	names := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		names = append(names, m.Name)
	}

	v := transactionView{
		ID:             t.ID,
		Date:           t.OccurredAt.Format("2006-01-02"),
		Category:       t.CategoryLabel(),
		Kind:           string(t.Kind),
		Amount:         core.FormatPounds(t.Amount.Cents),
		Classification: t.ClassificationLabel(),
		Members:        strings.Join(names, ", "),
	}
	if t.Kind == core.Expense {
		v.CostPerHead = formatPoundsFloat(t.CostPerHead())
		v.UserShare = formatPoundsFloat(t.UserShare())
		v.MembersShare = formatPoundsFloat(t.MembersTotalShare())
	}
	return v
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, newTransactionView(t))
	}
	return views
}

// statusClasses maps alert statuses to the CSS class the templates use.
var statusClasses = map[core.BudgetStatus]string{
	core.StatusWithinBudget:          "status-ok",
	core.StatusApproachingThreshold:  "status-near",
	core.StatusAlertThresholdReached: "status-warn",
	core.StatusOverBudget:            "status-over",
	core.StatusInvalidBudget:         "status-invalid",
}

func newBudgetView(eval services.BudgetEvaluation) budgetView {
	b := eval.Budget
	return budgetView{
		ID:            b.ID,
		Owner:         b.OwnerLabel(eval.MemberName),
		Category:      b.CategoryLabel(),
		Period:        string(b.Period),
		Ceiling:       core.FormatPounds(b.Ceiling.Cents),
		Spending:      formatPoundsFloat(eval.Spending),
		Remaining:     formatPoundsFloat(eval.Status.AmountRemaining),
		Percentage:    fmt.Sprintf("%.1f%%", eval.Status.PercentageUsed),
		Status:        strings.ReplaceAll(string(eval.Status.Status), "_", " "),
		StatusClass:   statusClasses[eval.Status.Status],
		Active:        b.IsActive,
		Notifications: b.NotificationsEnabled,
	}
}

func memberOptions(members []core.Member) []memberOption {
	opts := make([]memberOption, 0, len(members))
	for _, m := range members {
		opts = append(opts, memberOption{ID: m.ID, Name: m.Name})
	}
	return opts
}

type pageBase struct {
	UserName string
	Error    string
}

func newPageBase(user *storage.User) pageBase {
	if user == nil {
		return pageBase{}
	}
	return pageBase{UserName: user.Name}
}
