package amqp

import (
	"encoding/json"
	"time"

	"famtrack/internal/core"
)

// BudgetAlertMessage notifies the alert worker that a budget crossed its
// threshold. It carries the computed status so the worker does not need
// to re-query spending.
type BudgetAlertMessage struct {
	BudgetID        string            `json:"budget_id"`
	UserID          string            `json:"user_id"`
	Status          core.BudgetStatus `json:"status"`
	PercentageUsed  float64           `json:"percentage_used"`
	AmountRemaining float64           `json:"amount_remaining"`
	CategoryLabel   string            `json:"category_label"`
	OwnerLabel      string            `json:"owner_label"`
	Timestamp       time.Time         `json:"timestamp"`
}

// NewBudgetAlertMessage builds a message from a budget and its computed
// alert status.
func NewBudgetAlertMessage(b core.Budget, st core.AlertStatus, userID, memberName string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:        b.ID,
		UserID:          userID,
		Status:          st.Status,
		PercentageUsed:  st.PercentageUsed,
		AmountRemaining: st.AmountRemaining,
		CategoryLabel:   b.CategoryLabel(),
		OwnerLabel:      b.OwnerLabel(memberName),
		Timestamp:       time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
