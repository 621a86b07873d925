package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type cashflowPage struct {
	pageBase
	Months []cashflowRow
}

type cashflowRow struct {
	Label   string
	Income  string
	Expense string
	Net     string
}

func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	flows, err := s.analytics.Cashflow(r.Context(), user.ID, 6, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute cashflow",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := cashflowPage{pageBase: newPageBase(user)}
	for _, f := range flows {
		page.Months = append(page.Months, cashflowRow{
			Label:   fmt.Sprintf("%s %d", f.Month, f.Year),
			Income:  formatPoundsFloat(f.Income),
			Expense: formatPoundsFloat(f.Expense),
			Net:     formatPoundsFloat(f.Net),
		})
	}
	s.render(w, r, "cashflow.html", page)
}

type reportsPage struct {
	pageBase
	Breakdown []breakdownRow
	Members   []memberStatsView
}

type breakdownRow struct {
	Label  string
	Amount string
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)

	breakdown, err := s.analytics.CategoryBreakdown(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute category breakdown",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	stats, err := s.analytics.MemberStats(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute member stats",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := reportsPage{pageBase: newPageBase(user)}
	for _, row := range breakdown {
		page.Breakdown = append(page.Breakdown, breakdownRow{
			Label:  row.Label,
			Amount: formatPoundsFloat(row.Amount),
		})
	}
	for _, st := range stats {
		page.Members = append(page.Members, memberStatsView{
			ID:           st.Member.ID,
			Name:         st.Member.Name,
			Relationship: st.Member.Relationship,
			Transactions: st.TransactionCount,
			TotalShare:   formatPoundsFloat(st.TotalShare),
		})
	}
	s.render(w, r, "reports.html", page)
}

// handleExportCSV streams the user's transaction history as a CSV
// download, optionally bounded by from/to query params.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	from, to := parseDateRange(r)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "transactions-"+time.Now().Format("2006-01-02")+".csv"))

	if err := s.exporter.WriteCSV(r.Context(), w, user.ID, from, to); err != nil {
		slog.ErrorContext(r.Context(), "Failed to export CSV",
			"user_id", user.ID, "error", err)
	}
}
