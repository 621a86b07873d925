package http

import (
	"log/slog"
	"net/http"
	"time"

	"famtrack/internal/services"
)

type dashboardPage struct {
	pageBase
	Income        string
	Expense       string
	Net           string
	MonthSpending string
	Recent        []transactionView
	Breakdown     []services.CategoryBreakdownRow
	Budgets       []budgetView
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)

	dash, ok := s.dashCache.Get(user.ID)
	if !ok {
		var err error
		dash, err = s.analytics.Dashboard(r.Context(), user.ID, time.Now())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to build dashboard",
				"user_id", user.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.dashCache.Set(user.ID, dash)
	}

	page := dashboardPage{
		pageBase:      newPageBase(user),
		Income:        formatPoundsFloat(dash.Totals.Income),
		Expense:       formatPoundsFloat(dash.Totals.Expense),
		Net:           formatPoundsFloat(dash.Totals.Net),
		MonthSpending: formatPoundsFloat(dash.MonthSpending),
		Recent:        newTransactionViews(dash.Recent),
		Breakdown:     dash.Breakdown,
	}
	for _, eval := range dash.Budgets {
		page.Budgets = append(page.Budgets, newBudgetView(eval))
	}

	s.render(w, r, "dashboard.html", page)
}
