package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"famtrack/internal/core"
)

var errBadForm = errors.New("invalid form data")

// parseTransactionForm builds a transaction from POSTed form values.
// Member assignment comes from the repeated "members" field; names are
// resolved later by the service layer.
func parseTransactionForm(r *http.Request, userID string) (*core.Transaction, error) {
	if err := r.ParseForm(); err != nil {
		return nil, errBadForm
	}

	cents, err := core.ParseDecimalToCents(r.PostFormValue("amount"))
	if err != nil {
		return nil, err
	}

	kind, err := core.ParseKind(r.PostFormValue("kind"))
	if err != nil {
		return nil, err
	}

	var category core.Category
	if v := strings.TrimSpace(r.PostFormValue("category")); v != "" {
		category, err = core.ParseCategory(v)
		if err != nil {
			return nil, err
		}
	}

	occurredAt, err := parseDate(r.PostFormValue("date"))
	if err != nil {
		return nil, err
	}

	var members []core.MemberRef
	for _, id := range r.PostForm["members"] {
		if id = strings.TrimSpace(id); id != "" {
			members = append(members, core.MemberRef{ID: id})
		}
	}

	return &core.Transaction{
		ID:               strings.TrimSpace(r.PostFormValue("id")),
		UserID:           userID,
		Amount:           core.Money{Cents: cents},
		Kind:             kind,
		Category:         category,
		OccurredAt:       occurredAt,
		UserParticipates: r.PostFormValue("user_participates") != "",
		Members:          members,
	}, nil
}

// parseBudgetForm builds a budget from POSTed form values. The owner
// scope is either the acting user or one of their members.
func parseBudgetForm(r *http.Request, userID string) (*core.Budget, error) {
	if err := r.ParseForm(); err != nil {
		return nil, errBadForm
	}

	cents, err := core.ParseDecimalToCents(r.PostFormValue("ceiling"))
	if err != nil {
		return nil, err
	}

	period, err := core.ParsePeriod(r.PostFormValue("period"))
	if err != nil {
		return nil, err
	}

	var category core.Category
	if v := strings.TrimSpace(r.PostFormValue("category")); v != "" {
		category, err = core.ParseCategory(v)
		if err != nil {
			return nil, err
		}
	}

	threshold := core.DefaultAlertThreshold
	if v := strings.TrimSpace(r.PostFormValue("alert_threshold")); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, core.ErrInvalidThreshold
		}
	}

	b := &core.Budget{
		ID:                   strings.TrimSpace(r.PostFormValue("id")),
		Ceiling:              core.Money{Cents: cents},
		Period:               period,
		IsActive:             true,
		AlertThreshold:       threshold,
		NotificationsEnabled: r.PostFormValue("notifications") != "",
		Category:             category,
	}

	if memberID := strings.TrimSpace(r.PostFormValue("member_id")); memberID != "" {
		b.MemberID = memberID
	} else {
		b.UserID = userID
	}
	return b, nil
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, core.ErrInvalidDate
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t, nil
}

// parseDateRange reads optional from/to query params, defaulting to a
// window covering everything.
func parseDateRange(r *http.Request) (time.Time, time.Time) {
	from := time.Unix(0, 0)
	to := time.Now().AddDate(1, 0, 0)

	if v, err := parseDate(r.URL.Query().Get("from")); err == nil {
		from = v
	}
	if v, err := parseDate(r.URL.Query().Get("to")); err == nil {
		to = v.AddDate(0, 0, 1) // inclusive day becomes exclusive bound
	}
	return from, to
}
